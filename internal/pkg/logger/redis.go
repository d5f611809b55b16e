package logger

import (
	"context"
	"errors"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const slowRedisThreshold = 100 * time.Millisecond

// RedisLoggerHook 记录 Redis 错误与慢命令
type RedisLoggerHook struct{}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		if err == nil && elapsed < slowRedisThreshold {
			return nil
		}
		if err != nil && ignorableRedisError(cmd, err) {
			return err
		}

		fields := []any{
			log.String("command", cmd.Name()),
			log.String("args", redisArgs(cmd)),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Slow", fields...)
		}
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if err != nil {
			names := make([]string, 0, len(cmds))
			for _, c := range cmds {
				names = append(names, c.Name())
			}
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.String("commands", strings.Join(names, ",")),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err))
		}
		return err
	}
}

func ignorableRedisError(cmd redis.Cmder, err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	return cmd.Name() == "client" && strings.Contains(err.Error(), "setinfo")
}

func redisArgs(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	}
	parts := make([]string, 0, len(cmd.Args()))
	for _, a := range cmd.Args() {
		s, ok := a.(string)
		if !ok {
			continue
		}
		if len(s) > 64 {
			s = s[:64] + "..."
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
