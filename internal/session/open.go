package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cloud-ru/loan-calculator-bot/internal/config"
)

// Open выбирает хранилище сессий по SESSION_BACKEND.
// Возвращаемая функция закрывает соединения хранилища.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	switch cfg.SessionBackend {
	case "", "memory":
		return NewMemoryStore(cfg.SessionTTL), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.SessionTTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
