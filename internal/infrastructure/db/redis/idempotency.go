package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL    = 30 * time.Second
	pendingMarker = "pending"
)

// IdempotencyStore maps Idempotency-Key values to product ids.
// Key format: idempotency:product:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl falls back to 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SETNX. When the key exists it reports the stored
// product id, or an empty id while the owner has not completed.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	k := s.key(key)
	for {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", true, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; try to claim it again.
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if val == pendingMarker {
			return "", false, nil
		}
		return val, false, nil
	}
}

// Complete stores key → productID for the configured TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key, productID string) error {
	if err := s.client.Set(ctx, s.key(key), productID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops the key so a retry can claim it.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(key string) string {
	return "idempotency:product:" + key
}
