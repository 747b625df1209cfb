package composer

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ThemeListener receives theme changes.
type ThemeListener func(ThemeMode)

type themeSubscription struct {
	id int
	fn ThemeListener
}

// ThemeService is the single owner of the light/dark mode. It is created at
// startup and torn down with Close; it never recreates itself.
type ThemeService struct {
	setMu     sync.Mutex
	mu        sync.Mutex
	storage   KeyValueStore
	mode      ThemeMode
	subs      []themeSubscription
	next      int
	closed    bool
	telemetry Telemetry
}

// NewThemeService reads the persisted mode, falling back when it is absent or
// unknown. A fallback that is itself invalid means dark.
func NewThemeService(ctx context.Context, storage KeyValueStore, fallback ThemeMode) (*ThemeService, error) {
	if storage == nil {
		return nil, ErrMissingStorage
	}
	raw, _, err := storage.Get(ctx, KeyThemeMode)
	if err != nil {
		return nil, fmt.Errorf("composer: read %s: %w", KeyThemeMode, err)
	}
	mode := ThemeMode(strings.Trim(strings.TrimSpace(raw), `"`))
	return &ThemeService{
		storage:   storage,
		mode:      mode.OrDefault(fallback.OrDefault(ThemeDark)),
		telemetry: noopTelemetry{},
	}, nil
}

// WithTelemetry attaches a telemetry sink and returns the service.
func (s *ThemeService) WithTelemetry(t Telemetry) *ThemeService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = normalizeTelemetry(t)
	return s
}

// Theme returns the current mode.
func (s *ThemeService) Theme() ThemeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetTheme persists mode and then notifies subscribers synchronously in
// registration order. Listeners run without the state lock held but must not
// call SetTheme themselves.
func (s *ThemeService) SetTheme(ctx context.Context, mode ThemeMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, mode)
	}
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrThemeClosed
	}
	s.mu.Unlock()

	if err := s.storage.Set(ctx, KeyThemeMode, string(mode)); err != nil {
		return fmt.Errorf("composer: write %s: %w", KeyThemeMode, err)
	}

	s.mu.Lock()
	s.mode = mode
	subs := append([]themeSubscription(nil), s.subs...)
	telemetry := s.telemetry
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(mode)
	}
	telemetry.Record(ctx, "composer.theme.changed", map[string]any{
		"theme":       string(mode),
		"subscribers": len(subs),
	})
	return nil
}

// Toggle flips the mode and returns the new value.
func (s *ThemeService) Toggle(ctx context.Context) (ThemeMode, error) {
	next := s.Theme().Toggle()
	if err := s.SetTheme(ctx, next); err != nil {
		return s.Theme(), err
	}
	return next, nil
}

// Subscribe registers fn, delivers the current mode to it immediately and
// returns a function that removes the subscription.
func (s *ThemeService) Subscribe(fn ThemeListener) (func(), error) {
	if fn == nil {
		return func() {}, nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}, ErrThemeClosed
	}
	id := s.next
	s.next++
	s.subs = append(s.subs, themeSubscription{id: id, fn: fn})
	current := s.mode
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}, nil
}

// Subscribers reports how many listeners are registered.
func (s *ThemeService) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close drops every subscription; later SetTheme and Subscribe calls fail.
func (s *ThemeService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = nil
}
