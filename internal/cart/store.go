package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps carts in Redis keyed by an opaque device token. This is the
// server-side counterpart of local storage: no cross-device sync, a cart
// lives and dies with its token.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(token string) string {
	return "cart:" + token
}

// Load rehydrates the cart for a token. An unknown or expired token yields
// an empty cart, not an error.
func (s *Store) Load(ctx context.Context, token string) (*Cart, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err == redis.Nil {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// Save persists the cart and refreshes its TTL.
func (s *Store) Save(ctx context.Context, token string, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return s.client.Set(ctx, s.key(token), data, s.ttl).Err()
}

// Delete drops the cart outright, used after a completed checkout.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}
