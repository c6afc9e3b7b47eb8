package repository

import (
	"context"
	"errors"
	"time"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/ports"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth_state:"

// RedisStateStore holds OAuth state nonces in Redis with a TTL. Each nonce is
// consumed atomically so it validates at most once.
type RedisStateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStateStore creates a state store. ttl bounds how long an install
// redirect stays valid.
func NewRedisStateStore(rdb *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{rdb: rdb, ttl: ttl}
}

var _ ports.StateStore = (*RedisStateStore)(nil)

// Save associates a state nonce with the shop that initiated the install.
func (s *RedisStateStore) Save(ctx context.Context, state, shopDomain string) error {
	if err := s.rdb.Set(ctx, stateKeyPrefix+state, shopDomain, s.ttl).Err(); err != nil {
		return &domain.StoreError{Op: "save oauth state", Err: err}
	}
	return nil
}

// Consume returns the shop for a nonce and deletes it in one round trip.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	shopDomain, err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", &domain.AuthError{Msg: "unknown or expired oauth state"}
	}
	if err != nil {
		return "", &domain.StoreError{Op: "consume oauth state", Err: err}
	}
	return shopDomain, nil
}
