package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"cibil-store/internal/domain/entity"

	"github.com/redis/go-redis/v9"
)

// RedisIdentityCache remembers resolved bearer tokens for a short TTL.
// Keys hold a SHA-256 of the token, never the token itself.
type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{
		client: client,
		ttl:    ttl,
	}
}

func identityKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "identity:" + hex.EncodeToString(sum[:])
}

// Get returns nil, nil on a miss.
func (r *RedisIdentityCache) Get(ctx context.Context, token string) (*entity.Identity, error) {
	val, err := r.client.Get(ctx, identityKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var id entity.Identity
	if err := json.Unmarshal(val, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Set keeps the entry no longer than the token itself is valid.
func (r *RedisIdentityCache) Set(ctx context.Context, token string, id *entity.Identity) error {
	ttl := entryTTL(r.ttl, id, time.Now())
	if ttl <= 0 {
		return nil
	}
	val, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, identityKey(token), val, ttl).Err()
}

func entryTTL(ttl time.Duration, id *entity.Identity, now time.Time) time.Duration {
	if id.ExpiresAt.IsZero() {
		return ttl
	}
	return min(ttl, id.ExpiresAt.Sub(now))
}
