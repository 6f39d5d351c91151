package database

import (
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the users, user_roles and tasks tables with their indexes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.Task{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
