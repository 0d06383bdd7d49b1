package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReminderRun records one generator invocation so operators can audit
// batch outcomes without digging through logs.
type ReminderRun struct {
	BaseModel

	StartedAt  time.Time      `gorm:"index;not null" json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Processed  int            `json:"processed"`
	Skipped    int            `json:"skipped"`
	Errors     datatypes.JSON `json:"errors,omitempty"`
}
