package composer

import (
	"context"
	"fmt"
)

// BootstrapOptions wires a ready-to-use Session over one key/value backend.
type BootstrapOptions struct {
	Storage   KeyValueStore
	Seed      *SeedData
	Theme     ThemeMode
	Grid      GridOptions
	IDs       IDGenerator
	Telemetry Telemetry
}

// Bootstrap loads the entity collections and the theme from storage, builds a
// session and activates the seed's default dashboard. A nil Seed means
// DefaultSeed.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (*Session, error) {
	if opts.Storage == nil {
		return nil, ErrMissingStorage
	}
	seed := DefaultSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	telemetry := normalizeTelemetry(opts.Telemetry)
	store, err := NewEntityStore(StoreOptions{
		Storage:   opts.Storage,
		Seed:      seed,
		IDs:       opts.IDs,
		Telemetry: telemetry,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	theme, err := NewThemeService(ctx, opts.Storage, opts.Theme)
	if err != nil {
		return nil, err
	}
	theme.WithTelemetry(telemetry)
	if opts.Grid.IDs == nil {
		opts.Grid.IDs = opts.IDs
	}
	session, err := NewSession(SessionOptions{
		Store:     store,
		Theme:     theme,
		Grid:      opts.Grid,
		Telemetry: telemetry,
	})
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("composer: start session: %w", err)
	}
	return session, nil
}
