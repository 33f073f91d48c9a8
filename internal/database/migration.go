package database

import (
	"fmt"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Feature{},
		&models.Vote{},
		&models.LoginToken{},
		&models.Session{},
		&models.Comment{},
		&models.Suggestion{},
		&models.AdminEmail{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
