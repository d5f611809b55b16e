package service

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/pkg/util"
	"bytes"
	"context"
	"io"
	log "log/slog"
	"strings"
	"time"
)

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
	MediaKindFile  = "file"

	maxImageWidth = 1280
)

var mediaLimits = map[string]int64{
	MediaKindImage: 4 << 20,
	MediaKindVideo: 5 << 20,
	MediaKindFile:  1 << 20,
}

// MediaTempStore 跟踪尚未被引用的上传
type MediaTempStore interface {
	Track(ctx context.Context, objectName string, meta *dto.MediaTempMetadata) error
	Untrack(ctx context.Context, objectName string) error
}

type MediaService interface {
	MediaClaimer
	Upload(ctx context.Context, filename string, size int64, reader io.Reader, kind string) (*dto.MediaUploadDTO, error)
}

type mediaServiceImpl struct {
	storage ObjectStorage
	temp    MediaTempStore
	now     func() time.Time
}

func NewMediaService(storage ObjectStorage, temp MediaTempStore) MediaService {
	return &mediaServiceImpl{
		storage: storage,
		temp:    temp,
		now:     time.Now,
	}
}

// Upload 校验真实类型与大小，图片过宽时先缩放再上传
func (s *mediaServiceImpl) Upload(ctx context.Context, filename string, size int64, reader io.Reader, kind string) (*dto.MediaUploadDTO, error) {
	if kind != "" {
		if _, ok := mediaLimits[kind]; !ok {
			return nil, ErrFileNotSupported
		}
		if size > mediaLimits[kind] {
			return nil, ErrFileTooLarge
		}
	}

	contentType, body, err := util.SniffContentType(reader)
	if err != nil {
		return nil, err
	}
	actual := classify(contentType)
	if actual == "" {
		return nil, ErrFileNotSupported
	}
	if kind != "" && kind != actual {
		return nil, ErrFileNotSupported
	}

	limit := mediaLimits[actual]
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}

	var width, height int
	if actual == MediaKindImage && contentType != "image/gif" {
		out, w, h, _, err := util.DownsizeImage(data, contentType, maxImageWidth)
		if err != nil {
			return nil, ErrFileNotSupported
		}
		data, width, height = out, w, h
	}

	now := s.now()
	objectName := util.ObjectName(now, filename, contentType)
	key, err := s.storage.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	if s.temp != nil {
		meta := &dto.MediaTempMetadata{
			ObjectName: key,
			MimeType:   contentType,
			Size:       int64(len(data)),
			Width:      width,
			Height:     height,
			CreatedAt:  now.Unix(),
		}
		if err = s.temp.Track(ctx, key, meta); err != nil {
			log.WarnContext(ctx, "记录临时媒体失败", "object", key, "err", err)
		}
	}

	return &dto.MediaUploadDTO{
		URL:       s.storage.PublicURL(key),
		MediaType: mediaTypeForKind(actual),
		MimeType:  contentType,
		Size:      int64(len(data)),
		Width:     width,
		Height:    height,
	}, nil
}

// Claim 媒体被消息或头像引用后不再参与清理
func (s *mediaServiceImpl) Claim(ctx context.Context, url string) {
	if s.temp == nil {
		return
	}
	objectName := s.storage.ObjectName(url)
	if objectName == "" {
		return
	}
	if err := s.temp.Untrack(ctx, objectName); err != nil {
		log.WarnContext(ctx, "移除临时媒体记录失败", "object", objectName, "err", err)
	}
}

func classify(contentType string) string {
	switch util.MediaKind(contentType) {
	case MediaKindImage:
		return MediaKindImage
	case MediaKindVideo:
		return MediaKindVideo
	}
	switch contentType {
	case "application/pdf", "application/zip", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return MediaKindFile
	}
	if strings.HasPrefix(contentType, "text/") {
		return MediaKindFile
	}
	return ""
}

func mediaTypeForKind(kind string) string {
	switch kind {
	case MediaKindImage:
		return model.MediaTypeImage
	case MediaKindVideo:
		return model.MediaTypeVideo
	default:
		return model.MediaTypeFile
	}
}
