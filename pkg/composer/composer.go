// Package composer re-exports the entry points of the dashboard composition
// engine for applications embedding it.
package composer

import (
	"context"
	"io"

	core "github.com/goliatone/go-dashboard-composer/components/composer"
)

// Session exposes the underlying components/composer.Session type.
type Session = core.Session

// BootstrapOptions re-export for convenience.
type BootstrapOptions = core.BootstrapOptions

// KeyValueStore is the persistence contract every storage backend satisfies.
type KeyValueStore = core.KeyValueStore

// Telemetry re-export for convenience.
type Telemetry = core.Telemetry

// Bootstrap proxies to the internal constructor.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (*Session, error) {
	return core.Bootstrap(ctx, opts)
}

// NewMemoryStore returns an in-process key/value store.
func NewMemoryStore(initial map[string]string) *core.MemoryStore {
	return core.NewMemoryStore(initial)
}

// NewWorkspacePage wires a controller that renders the embedded workspace page
// for session.
func NewWorkspacePage(session *Session, telemetry Telemetry) (*core.Controller, error) {
	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	return core.NewController(core.ControllerOptions{
		Workspace: session,
		Renderer:  renderer,
		Telemetry: telemetry,
	}), nil
}

// RenderWorkspace writes the workspace page for session to out.
func RenderWorkspace(ctx context.Context, session *Session, search string, out io.Writer) error {
	page, err := NewWorkspacePage(session, nil)
	if err != nil {
		return err
	}
	return page.RenderTemplate(ctx, search, out)
}
