package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks live sessions so a token stops working on logout,
// not just at expiry.
type SessionStore interface {
	Put(ctx context.Context, jti, userID string) error
	Exists(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
}

type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func key(jti string) string { return "session:" + jti }

func (s *RedisSessions) Put(ctx context.Context, jti, userID string) error {
	return s.client.Set(ctx, key(jti), userID, s.ttl).Err()
}

func (s *RedisSessions) Exists(ctx context.Context, jti string) (bool, error) {
	_, err := s.client.Get(ctx, key(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSessions) Revoke(ctx context.Context, jti string) error {
	return s.client.Del(ctx, key(jti)).Err()
}
