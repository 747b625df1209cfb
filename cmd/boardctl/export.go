package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type exportCmd struct {
	Format   string `enum:"yaml,json" default:"yaml" help:"Output format."`
	UserOnly bool   `name:"user-only" help:"Skip the built-in seed folders and dashboards."`
	Out      string `default:"-" help:"Output file, - for stdout."`
}

func (cmd *exportCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage() //nolint:errcheck

	doc, err := exportManifest(ctx, storage, cmd.UserOnly)
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
	return encodeExport(out, doc, cmd.Format)
}

// exportManifest reads the persisted collections, merged with the default
// seed, into a manifest that can be fed back through the catalog loader.
func exportManifest(ctx context.Context, storage composer.KeyValueStore, userOnly bool) (*composer.CatalogManifest, error) {
	store, err := composer.NewEntityStore(composer.StoreOptions{Storage: storage, Seed: composer.DefaultSeed()})
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	seed := composer.SeedData{Folders: []composer.Folder{}, Dashboards: []composer.Dashboard{}}
	if !userOnly {
		seed.DefaultDashboardID = store.DefaultDashboardID()
	}
	for _, f := range store.Folders() {
		if userOnly && store.IsSeed(f.ID) {
			continue
		}
		seed.Folders = append(seed.Folders, f)
	}
	for _, d := range store.Dashboards() {
		if userOnly && store.IsSeed(d.ID) {
			continue
		}
		seed.Dashboards = append(seed.Dashboards, d)
	}
	return &composer.CatalogManifest{
		Version: composer.ManifestVersion,
		Name:    "export",
		Widgets: []composer.CatalogEntry{},
		Seed:    &seed,
	}, nil
}

func encodeExport(w io.Writer, doc *composer.CatalogManifest, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}
