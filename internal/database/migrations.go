package database

import (
	"gorm.io/gorm"

	"github.com/gatherpoint/gatherpoint/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.PlaceholderProfile{},
		&models.Meeting{},
		&models.Attendance{},
		&models.ReminderToken{},
		&models.ReminderRun{},
	)
}
