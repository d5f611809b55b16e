package minio

import (
	"Parlor/internal/api/config"
	"Parlor/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
	// MainBucket 媒体存储桶
	MainBucket string
)

// Init 初始化 MinIO 客户端
func Init() error {
	cfg := config.Cfg.MinIO

	var endpoint string
	var useSSL bool
	if cfg.InternalEndpoint != "" {
		endpoint = cfg.InternalEndpoint
		useSSL = cfg.InternalUseSSL
	} else {
		endpoint = cfg.ExternalEndpoint
		useSSL = cfg.ExternalUseSSL
	}

	transport, err := minio.DefaultTransport(useSSL)
	if err != nil {
		return fmt.Errorf("failed to build minio transport: %w", err)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    useSSL,
		Transport: logger.NewStorageTransport(transport),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	Client = client
	MainBucket = cfg.MainBucket
	return ensureBucket(context.Background())
}

func ensureBucket(ctx context.Context) error {
	exists, err := Client.BucketExists(ctx, MainBucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if exists {
		return nil
	}
	if err = Client.MakeBucket(ctx, MainBucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	log.Info("已创建媒体存储桶", "bucket", MainBucket)
	return nil
}
