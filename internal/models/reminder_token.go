package models

import "time"

// ReminderState is the workflow phase derived from a token's timestamps.
type ReminderState string

const (
	// ReminderPending: issued, awaiting organizer confirmation.
	ReminderPending ReminderState = "pending"
	// ReminderConfirmed: organizer approved, attendee send in flight.
	ReminderConfirmed ReminderState = "confirmed"
	// ReminderSent: attendee email dispatched. Terminal.
	ReminderSent ReminderState = "sent"
	// ReminderExpired: past expires_at. Terminal, rejects all actions.
	ReminderExpired ReminderState = "expired"
)

// ReminderToken drives the two-phase reminder workflow for one meeting.
// The token string doubles as the bearer credential in the confirmation
// link, so it is high-entropy and unique. At most one row exists per
// meeting; the generator refreshes it in place.
type ReminderToken struct {
	BaseModel

	MeetingID   string    `gorm:"type:uuid;uniqueIndex;not null" json:"meeting_id"`
	OrganizerID string    `gorm:"type:uuid;not null;index" json:"organizer_id"`
	Token       string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt   time.Time `gorm:"index;not null" json:"expires_at"`

	ReminderSentAt      *time.Time `json:"reminder_sent_at,omitempty"`
	ConfirmedAt         *time.Time `json:"confirmed_at,omitempty"`
	AttendeeEmailSentAt *time.Time `json:"attendee_email_sent_at,omitempty"`

	CustomDescription *string `json:"custom_description,omitempty"`
	CustomMessage     *string `json:"custom_message,omitempty"`

	Meeting *Meeting `gorm:"constraint:OnDelete:CASCADE" json:"meeting,omitempty"`
}

// State derives the workflow phase at the given instant. Expiry takes
// precedence over every other flag.
func (t *ReminderToken) State(now time.Time) ReminderState {
	switch {
	case t == nil:
		return ReminderExpired
	case !t.ExpiresAt.After(now):
		return ReminderExpired
	case t.AttendeeEmailSentAt != nil:
		return ReminderSent
	case t.ConfirmedAt != nil:
		return ReminderConfirmed
	default:
		return ReminderPending
	}
}
