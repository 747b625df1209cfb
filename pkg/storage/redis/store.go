// Package redis persists composer keys as plain Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

// Store is a composer.KeyValueStore backed by Redis. Keys are stored as
// "<namespace>:<key>" without expiry.
type Store struct {
	client    goredis.UniversalClient
	namespace string
}

var _ composer.KeyValueStore = (*Store)(nil)

// New wraps an existing client.
func New(client goredis.UniversalClient, namespace string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis: client is required")
	}
	return &Store{client: client, namespace: namespace}, nil
}

// Dial connects to addr and pings it before returning.
func Dial(ctx context.Context, addr, namespace string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return New(client, namespace)
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
