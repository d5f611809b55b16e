package job

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/repository"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTemp struct {
	items map[string]*dto.MediaTempMetadata
}

func (m *memoryTemp) List(context.Context) (map[string]*dto.MediaTempMetadata, error) {
	res := make(map[string]*dto.MediaTempMetadata, len(m.items))
	for k, v := range m.items {
		res[k] = v
	}
	return res, nil
}

func (m *memoryTemp) Untrack(_ context.Context, objectName string) error {
	delete(m.items, objectName)
	return nil
}

type memoryStorage struct {
	removed []string
	failOn  string
}

func (m *memoryStorage) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("not used")
}

func (m *memoryStorage) Remove(_ context.Context, objectName string) error {
	if objectName == m.failOn {
		return errors.New("storage unavailable")
	}
	m.removed = append(m.removed, objectName)
	return nil
}

func (m *memoryStorage) PublicURL(objectName string) string { return objectName }

func (m *memoryStorage) ObjectName(url string) string { return url }

func TestMediaCleanupRemovesOnlyExpired(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	temp := &memoryTemp{items: map[string]*dto.MediaTempMetadata{
		"old.png":    {CreatedAt: now.Add(-25 * time.Hour).Unix()},
		"fresh.png":  {CreatedAt: now.Add(-time.Hour).Unix()},
		"broken.png": {CreatedAt: now.Add(-48 * time.Hour).Unix()},
	}}
	storage := &memoryStorage{failOn: "broken.png"}
	j := NewMediaCleanupJob(storage, temp)
	j.now = func() time.Time { return now }

	n, err := j.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"old.png"}, storage.removed)
	assert.NotContains(t, temp.items, "old.png")
	// 删除失败的保留，下次再试
	assert.Contains(t, temp.items, "broken.png")
	assert.Contains(t, temp.items, "fresh.png")
}

type relabelRepo struct {
	repository.RoomRepo
	rooms            map[string]*model.Room
	roomID, roomType string
	batch            int
	calls            int
}

func (r *relabelRepo) GetRoomByID(_ context.Context, id string) (*model.Room, error) {
	return r.rooms[id], nil
}

func (r *relabelRepo) RelabelRoomType(_ context.Context, roomID, roomType string, batchSize int) (int64, error) {
	r.roomID, r.roomType, r.batch = roomID, roomType, batchSize
	r.calls++
	return 7, nil
}

func TestRoomRelabelJob(t *testing.T) {
	repo := &relabelRepo{rooms: map[string]*model.Room{
		"r1": {Base: model.Base{ID: "r1"}, Type: model.RoomTypePrivate},
	}}
	j := NewRoomRelabelJob(repo)

	n, err := j.Relabel(context.Background(), "r1", "private")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "r1", repo.roomID)
	assert.Equal(t, "private", repo.roomType)
	assert.Equal(t, 1000, repo.batch)
}

func TestRoomRelabelJobUsesCurrentType(t *testing.T) {
	// public -> private -> public，较早的任务晚到也只会写入当前类型
	repo := &relabelRepo{rooms: map[string]*model.Room{
		"r1": {Base: model.Base{ID: "r1"}, Type: model.RoomTypePublic},
	}}
	j := NewRoomRelabelJob(repo)

	_, err := j.Relabel(context.Background(), "r1", "private")
	require.NoError(t, err)
	assert.Equal(t, "public", repo.roomType)
}

func TestRoomRelabelJobSkipsUnsupported(t *testing.T) {
	repo := &relabelRepo{rooms: map[string]*model.Room{
		"dm": {Base: model.Base{ID: "dm"}, Type: model.RoomTypeDirectMessage},
	}}
	j := NewRoomRelabelJob(repo)
	ctx := context.Background()

	n, err := j.Relabel(ctx, "dm", "direct_message")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = j.Relabel(ctx, "gone", "public")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, repo.calls)
}
