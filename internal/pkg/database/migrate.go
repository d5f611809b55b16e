package database

import (
	"Parlor/internal/model"
	"fmt"
	log "log/slog"

	"gorm.io/gorm"
)

// Migrate 建表、建索引与外键
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Room{},
		&model.RoomMember{},
		&model.RoomMessage{},
		&model.RoomInvitation{},
		&model.DirectConversation{},
		&model.DirectMessage{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	log.Info("Database schema migrated.")
	return nil
}
