package main

import (
	"context"
	"fmt"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
	"github.com/goliatone/go-dashboard-composer/config"
	"github.com/goliatone/go-dashboard-composer/pkg/storage/postgres"
	"github.com/goliatone/go-dashboard-composer/pkg/storage/redis"
	"github.com/goliatone/go-dashboard-composer/pkg/storage/sqlite"
)

// openStorage returns the key/value backend named by cfg.Driver and a func
// releasing it.
func openStorage(ctx context.Context, cfg config.StorageConfig) (composer.KeyValueStore, func() error, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return composer.NewMemoryStore(nil), func() error { return nil }, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.DSN, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverRedis:
		store, err := redis.Dial(ctx, cfg.DSN, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.DSN, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { store.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("boardctl: unknown storage driver %q", cfg.Driver)
	}
}
