package service

import (
	"context"
	"io"
)

// TaskPublisher 投递异步任务，不等待执行结果
type TaskPublisher interface {
	Publish(ctx context.Context, task, key string, payload any) error
}

// Notifier 向在线用户推送实时事件
type Notifier interface {
	Notify(ctx context.Context, userID, event string, payload any) error
}

// ObjectStorage 媒体对象存储
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
	ObjectName(url string) string
}

// MediaClaimer 媒体被消息引用后从临时记录中移除
type MediaClaimer interface {
	Claim(ctx context.Context, url string)
}
