package models

// Attendance statuses. Only invited and accepted attendees count toward
// the reminder audience.
const (
	AttendanceInvited  = "invited"
	AttendanceAccepted = "accepted"
	AttendanceDeclined = "declined"
)

// Attendance links a meeting to an attendee, who is either a real user or
// a placeholder profile. Exactly one of UserID / PlaceholderID is set.
type Attendance struct {
	BaseModel

	MeetingID     string  `gorm:"type:uuid;not null;index" json:"meeting_id"`
	UserID        *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	PlaceholderID *string `gorm:"type:uuid;index" json:"placeholder_id,omitempty"`
	Status        string  `gorm:"not null;default:invited" json:"status"`

	User        *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Placeholder *PlaceholderProfile `gorm:"foreignKey:PlaceholderID" json:"placeholder,omitempty"`
}
