package models

// PlaceholderProfile represents an invitee without an account. Organizers
// add these by hand; an email address is optional.
type PlaceholderProfile struct {
	BaseModel

	GroupID string  `gorm:"type:uuid;index" json:"group_id"`
	Name    string  `gorm:"not null" json:"name"`
	Email   *string `json:"email,omitempty"`
}
