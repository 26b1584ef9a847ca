package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// outcome is what the store keeps per idempotency key: a claim while the
// handler runs, then the response it produced.
type outcome struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	Payload     []byte    `json:"payload,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RequestID   string    `json:"request_id"`
	RequestAt   time.Time `json:"request_at"`
}

type outcomeStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// claim records a pending outcome unless the key exists. It reports whether
// this caller owns the key.
func (s *outcomeStore) claim(ctx context.Context, key string, o outcome) (bool, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return false, fmt.Errorf("encode outcome: %w", err)
	}
	return s.rdb.SetNX(ctx, key, b, claimTTL).Result()
}

func (s *outcomeStore) lookup(ctx context.Context, key string) (outcome, error) {
	var o outcome
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(b, &o); err != nil {
		return o, fmt.Errorf("decode outcome: %w", err)
	}
	return o, nil
}

// commit replaces the claim with the final outcome for the configured TTL.
func (s *outcomeStore) commit(ctx context.Context, key string, o outcome) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *outcomeStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
