package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
	"github.com/goliatone/go-dashboard-composer/components/composer/commands"
	"github.com/goliatone/go-dashboard-composer/components/composer/gorouter"
	"github.com/goliatone/go-dashboard-composer/components/composer/httpapi"
	"github.com/goliatone/go-dashboard-composer/config"
	"github.com/goliatone/go-dashboard-composer/pkg/analytics"
)

type serveCmd struct {
	StreamAddr      string        `name:"stream-addr" default:":8081" help:"Address of the net/http listener serving /api, /events and /ws. Empty disables it."`
	Verify          bool          `help:"Verify analytics credentials against the surface before serving."`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

func (cmd *serveCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			fmt.Fprintln(os.Stderr, "✗ Analytics credentials are missing. Set COMPOSER_ANALYTICS_URL and COMPOSER_ANALYTICS_TOKEN; the workspace cannot render without them.")
		}
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Verify {
		client, err := analytics.NewHTTPClient(analytics.HTTPConfig{BaseURL: cfg.Analytics.URL, Token: cfg.Analytics.Token})
		if err != nil {
			return err
		}
		if err := client.Verify(ctx); err != nil {
			return fmt.Errorf("boardctl: verify analytics credentials: %w", err)
		}
		logger.Info("analytics credentials verified", zap.String("url", cfg.Analytics.URL))
	}

	rt, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config{
		Router:     server.Router(),
		Controller: rt.controller,
		API:        rt.bus,
		Broadcast:  rt.hook,
		BasePath:   cfg.Server.BasePath,
	}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("composer listening", zap.String("addr", cfg.Server.Addr), zap.String("base", cfg.Server.BasePath))
		return server.Serve(cfg.Server.Addr)
	})

	var stream *http.Server
	if cmd.StreamAddr != "" {
		stream = &http.Server{Addr: cmd.StreamAddr, Handler: streamMux(rt), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("stream listener", zap.String("addr", cmd.StreamAddr))
			if err := stream.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if cfg.Catalog.Manifest != "" && cfg.Catalog.Watch {
		loader := commands.NewLoadManifestCommand(rt.session.Catalog(), rt.telemetry)
		g.Go(func() error {
			return watchManifest(gctx, cfg.Catalog.Manifest, loader, logger)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cmd.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		var errs []error
		if stream != nil {
			errs = append(errs, stream.Shutdown(shutdownCtx))
		}
		errs = append(errs, server.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// app is the wired composer runtime shared by the transports.
type app struct {
	session    *composer.Session
	hook       *composer.BroadcastHook
	controller *composer.Controller
	bus        *httpapi.Bus
	telemetry  *composer.ZapTelemetry
	closers    []func() error
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a := &app{
		hook:      composer.NewBroadcastHook(),
		telemetry: composer.NewZapTelemetry(logger),
		closers:   []func() error{closeStorage},
	}

	var seed *composer.SeedData
	if cfg.Catalog.Manifest != "" {
		doc, err := composer.ReadManifest(cfg.Catalog.Manifest)
		if err != nil {
			a.close()
			return nil, err
		}
		seed = doc.Seed
	}

	session, err := composer.Bootstrap(ctx, composer.BootstrapOptions{
		Storage: storage,
		Seed:    seed,
		Theme:   composer.ThemeMode(cfg.Theme.Default),
		Grid: composer.GridOptions{
			ResizeSettle: cfg.Grid.ResizeSettle,
			Notifier:     a.hook,
		},
		Telemetry: a.telemetry,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.session = session

	if cfg.Catalog.Manifest != "" {
		loader := commands.NewLoadManifestCommand(session.Catalog(), a.telemetry)
		if err := loader.Execute(ctx, commands.LoadManifestInput{Path: cfg.Catalog.Manifest}); err != nil {
			a.close()
			return nil, err
		}
	}

	renderer, err := composer.NewTemplateRenderer()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("boardctl: templates: %w", err)
	}
	a.controller = composer.NewController(composer.ControllerOptions{
		Workspace: session,
		Renderer:  renderer,
		Telemetry: a.telemetry,
	})
	a.bus = httpapi.NewSessionBus(session, a.telemetry)
	return a, nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// streamMux serves the JSON API and the view-event streams on net/http.
func streamMux(a *app) *http.ServeMux {
	api := &httpapi.Handlers{API: a.bus}
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.Routes()))
	mux.HandleFunc("GET /events", a.hook.ServeSSE)
	mux.HandleFunc("GET /ws", a.hook.ServeWebSocket)
	return mux
}

// watchManifest reloads the manifest whenever it is written. The parent
// directory is watched so editors that replace the file are picked up.
func watchManifest(ctx context.Context, path string, loader *commands.LoadManifestCommand, logger *zap.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("boardctl: resolve manifest path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("boardctl: manifest watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("boardctl: watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if err := loader.Execute(ctx, commands.LoadManifestInput{Path: abs}); err != nil {
				logger.Warn("manifest reload failed", zap.String("path", abs), zap.Error(err))
				continue
			}
			logger.Info("manifest reloaded", zap.String("path", abs))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("manifest watcher error", zap.Error(err))
		}
	}
}
