package main

import (
	"context"
	"fmt"
	"io"
	"os"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
	"github.com/goliatone/go-dashboard-composer/config"
	"github.com/goliatone/go-dashboard-composer/pkg/analytics"
)

type previewCmd struct {
	Key      string `arg:"" help:"Catalog key of the widget to render."`
	Theme    string `enum:"dark,light" default:"dark" help:"Theme to render with."`
	Manifest string `type:"path" help:"Catalog manifest to merge before resolving the key."`
	Offline  bool   `help:"Render sample options instead of fetching from the analytics surface."`
	Out      string `default:"-" help:"Output file, - for stdout."`
}

func (cmd *previewCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	var client analytics.ChartClient
	if cmd.Offline {
		client = analytics.NewMockClient(analytics.SampleChartOptions())
	} else {
		httpClient, err := analytics.NewHTTPClient(analytics.HTTPConfig{BaseURL: cfg.Analytics.URL, Token: cfg.Analytics.Token})
		if err != nil {
			return err
		}
		client = httpClient
	}

	html, err := renderPreview(ctx, cfg, client, cmd.Key, composer.ThemeMode(cmd.Theme), cmd.Manifest)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if cmd.Out != "-" {
		f, err := os.Create(cmd.Out) //nolint:gosec
		if err != nil {
			return fmt.Errorf("boardctl: create %s: %w", cmd.Out, err)
		}
		defer f.Close()
		out = f
	}
	_, err = io.WriteString(out, html)
	return err
}

// renderPreview places the widget on a throwaway in-memory workspace and
// renders its plan with options fetched from client.
func renderPreview(ctx context.Context, cfg config.Config, client analytics.ChartClient, key string, theme composer.ThemeMode, manifest string) (string, error) {
	session, err := composer.Bootstrap(ctx, composer.BootstrapOptions{
		Storage: composer.NewMemoryStore(nil),
		Seed:    &composer.SeedData{},
		Theme:   theme,
	})
	if err != nil {
		return "", err
	}
	defer session.Close()

	if manifest != "" {
		if _, err := session.Catalog().LoadManifestFile(manifest); err != nil {
			return "", err
		}
	}
	if _, ok := session.Catalog().Resolve(key); !ok {
		return "", fmt.Errorf("%w: %s", composer.ErrUnknownCatalogKey, key)
	}
	inst, err := session.Grid().AddCatalogWidget(ctx, key, nil)
	if err != nil {
		return "", err
	}
	var plan composer.RenderPlan
	for _, p := range session.RenderPlans() {
		if p.InstanceID == inst.InstanceID {
			plan = p
		}
	}
	if plan.WidgetOID == "" {
		return "", fmt.Errorf("boardctl: widget %s has no analytics surface to preview", key)
	}

	renderer := composer.NewPreviewRenderer(
		composer.WithPreviewCache(composer.NewMemoryPreviewCache(cfg.Preview.CacheTTL)),
		composer.WithPreviewAssetsHost(cfg.Preview.AssetsHost),
	)
	return analytics.NewWidgetPreviewer(client, renderer).Preview(ctx, plan)
}
