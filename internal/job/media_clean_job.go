package job

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/logger"
	"Parlor/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const mediaExpiration = 24 * time.Hour

// MediaTempLister 列出仍处于临时状态的上传
type MediaTempLister interface {
	List(ctx context.Context) (map[string]*dto.MediaTempMetadata, error)
	Untrack(ctx context.Context, objectName string) error
}

// MediaCleanupJob 删除上传后 24 小时内没有被引用的媒体
type MediaCleanupJob struct {
	storage service.ObjectStorage
	temp    MediaTempLister
	now     func() time.Time
}

func NewMediaCleanupJob(storage service.ObjectStorage, temp MediaTempLister) *MediaCleanupJob {
	return &MediaCleanupJob{storage: storage, temp: temp, now: time.Now}
}

func (s *MediaCleanupJob) Run() {
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, "job-"+uuid.NewString())
	if _, err := s.Cleanup(ctx); err != nil {
		log.ErrorContext(ctx, "media cleanup job failed", "err", err)
	}
}

func (s *MediaCleanupJob) Cleanup(ctx context.Context) (int, error) {
	allMedia, err := s.temp.List(ctx)
	if err != nil {
		return 0, err
	}

	deadline := s.now().Add(-mediaExpiration).Unix()
	count := 0
	for objectName, meta := range allMedia {
		if meta.CreatedAt > deadline {
			continue
		}
		if err = s.storage.Remove(ctx, objectName); err != nil {
			log.ErrorContext(ctx, "failed to delete expired file", "object", objectName, "err", err)
			continue
		}
		if err = s.temp.Untrack(ctx, objectName); err != nil {
			log.ErrorContext(ctx, "failed to untrack media", "object", objectName, "err", err)
		}
		count++
		log.InfoContext(ctx, "cleanup expired media resource", "object", objectName, "mime", meta.MimeType)
	}

	if count > 0 {
		log.InfoContext(ctx, "media cleanup job finished", "cleaned_count", count)
	}
	return count, nil
}
