package db

import (
	"gorm.io/gorm"

	"github.com/studyvault/studyvault-backend/internal/domain/content"
)

// AutoMigrateAll creates the canonical relational schema. Parent tables
// come first so FK constraints resolve.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&content.User{},

		&content.Class{},
		&content.Subject{},
		&content.Topic{},
		&content.Lesson{},
		&content.Chunk{},
		&content.Keyword{},
	)
}
