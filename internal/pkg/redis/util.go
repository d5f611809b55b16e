package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetWithExpiration 设置键值对并设置过期时间
func SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// Exists 键是否存在
func Exists(ctx context.Context, key string) (bool, error) {
	n, err := Rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HSet 设置哈希字段
func HSet(ctx context.Context, key, field string, value interface{}) error {
	return Rdb.HSet(ctx, key, field, value).Err()
}

// HDel 删除哈希字段
func HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return Rdb.HDel(ctx, key, fields...).Err()
}

// HGetAll 获取整个哈希
func HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return Rdb.HGetAll(ctx, key).Result()
}

// Publish 向频道发布消息
func Publish(ctx context.Context, channel string, message interface{}) error {
	return Rdb.Publish(ctx, channel, message).Err()
}

// Subscribe 订阅频道，调用方负责 Close
func Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return Rdb.Subscribe(ctx, channels...)
}
