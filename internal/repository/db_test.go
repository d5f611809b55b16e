package repository

import (
	"Parlor/internal/api/config"
	"Parlor/internal/model"
	"Parlor/internal/pkg/database"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "parlor.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := database.NewGormDB(&config.DBConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:    username + "@example.com",
		Username: username,
		Password: "hash",
		Status:   model.UserStatusActive,
	}
	require.NoError(t, NewUserRepo(db).CreateUser(context.Background(), user, &model.Profile{}))
	return user
}
