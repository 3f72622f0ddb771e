package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "loanbot:session:"

// RedisStore хранит сессии в Redis в виде JSON с истечением по TTL
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore создает хранилище поверх клиента Redis
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(chatID int64) string {
	return redisKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	data, err := r.client.Get(ctx, redisKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %d: %w", chatID, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", s.ChatID, err)
	}
	if err := r.client.Set(ctx, redisKey(s.ChatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %d: %w", s.ChatID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, redisKey(chatID)).Err(); err != nil {
		return fmt.Errorf("redis delete session %d: %w", chatID, err)
	}
	return nil
}
