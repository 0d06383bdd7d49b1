package models

// Group is a parish or small group that holds meetings. Managed by the
// main application; this subsystem only reads it.
type Group struct {
	BaseModel

	Name     string  `gorm:"not null" json:"name"`
	Timezone *string `json:"timezone,omitempty"`
}
