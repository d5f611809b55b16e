package minio

import (
	"context"
	"io"
)

// Storage 以 MinIO 作为媒体存储
type Storage struct{}

func NewStorage() *Storage {
	return &Storage{}
}

func (s *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	return UploadFile(ctx, objectName, reader, size, contentType)
}

func (s *Storage) Remove(ctx context.Context, objectName string) error {
	return DeleteFile(ctx, objectName)
}

func (s *Storage) PublicURL(objectName string) string {
	return GetPublicURL(objectName)
}

func (s *Storage) ObjectName(url string) string {
	return ObjectNameFromURL(url)
}
