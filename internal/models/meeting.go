package models

import "time"

// Meeting is a scheduled gathering of a group. The reminder workflow
// treats meetings as immutable input and fetches them fresh per request.
type Meeting struct {
	BaseModel

	GroupID     string    `gorm:"type:uuid;not null;index" json:"group_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `gorm:"index;not null" json:"starts_at"`
	Location    string    `json:"location"`
	OrganizerID *string   `gorm:"type:uuid;index" json:"organizer_id,omitempty"`
	Timezone    *string   `json:"timezone,omitempty"`

	Group     *Group `gorm:"constraint:OnDelete:CASCADE" json:"group,omitempty"`
	Organizer *User  `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
}
