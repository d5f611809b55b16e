package service

import (
	"Parlor/internal/api/config"
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/pkg/database"
	"Parlor/internal/repository"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
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
	require.NoError(t, repository.NewUserRepo(db).CreateUser(context.Background(), user, &model.Profile{}))
	return user
}

type publishedTask struct {
	Task    string
	Key     string
	Payload any
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []publishedTask
	err   error
}

func (f *fakeTasks) Publish(_ context.Context, task, key string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, publishedTask{Task: task, Key: key, Payload: payload})
	return f.err
}

type pushedEvent struct {
	UserID  string
	Event   string
	Payload any
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (f *fakeNotifier) Notify(_ context.Context, userID, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pushedEvent{UserID: userID, Event: event, Payload: payload})
	return nil
}

func (f *fakeNotifier) eventsFor(userID string) []pushedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []pushedEvent
	for _, e := range f.events {
		if e.UserID == userID {
			res = append(res, e)
		}
	}
	return res
}

type fakeStorage struct {
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", err
	}
	f.objects[objectName] = buf.Bytes()
	return objectName, nil
}

func (f *fakeStorage) Remove(_ context.Context, objectName string) error {
	delete(f.objects, objectName)
	return nil
}

func (f *fakeStorage) PublicURL(objectName string) string {
	return "https://cdn.test/parlor/" + objectName
}

func (f *fakeStorage) ObjectName(url string) string {
	if !strings.HasPrefix(url, "https://cdn.test/parlor/") {
		return ""
	}
	return strings.TrimPrefix(url, "https://cdn.test/parlor/")
}

type fakeTempStore struct {
	tracked map[string]*dto.MediaTempMetadata
}

func newFakeTempStore() *fakeTempStore {
	return &fakeTempStore{tracked: make(map[string]*dto.MediaTempMetadata)}
}

func (f *fakeTempStore) Track(_ context.Context, objectName string, meta *dto.MediaTempMetadata) error {
	f.tracked[objectName] = meta
	return nil
}

func (f *fakeTempStore) Untrack(_ context.Context, objectName string) error {
	delete(f.tracked, objectName)
	return nil
}
