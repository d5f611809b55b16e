package redis

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/consts"
	"context"
	log "log/slog"

	"github.com/goccy/go-json"
)

// MediaTempStore 记录已上传但尚未被引用的媒体，由清理任务回收
type MediaTempStore struct{}

func NewMediaTempStore() *MediaTempStore {
	return &MediaTempStore{}
}

func (m *MediaTempStore) Track(ctx context.Context, objectName string, meta *dto.MediaTempMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return HSet(ctx, consts.MediaTempKey, objectName, string(data))
}

func (m *MediaTempStore) Untrack(ctx context.Context, objectName string) error {
	return HDel(ctx, consts.MediaTempKey, objectName)
}

// List 解析失败的条目原样跳过
func (m *MediaTempStore) List(ctx context.Context) (map[string]*dto.MediaTempMetadata, error) {
	all, err := HGetAll(ctx, consts.MediaTempKey)
	if err != nil {
		return nil, err
	}
	res := make(map[string]*dto.MediaTempMetadata, len(all))
	for objectName, val := range all {
		meta := &dto.MediaTempMetadata{}
		if err = json.Unmarshal([]byte(val), meta); err != nil {
			log.WarnContext(ctx, "invalid media meta format", "object", objectName)
			continue
		}
		res[objectName] = meta
	}
	return res, nil
}
