package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type scaffoldCmd struct {
	Title            string `required:"" help:"Display title of the widget."`
	Key              string `help:"Catalog key (defaults to the kebab-cased title)."`
	Description      string `help:"One-line description shown in the catalog."`
	Category         string `default:"chart" help:"Catalog category (kpi, chart, table, embed)."`
	Width            int    `default:"6" help:"Default width in grid columns."`
	Height           int    `default:"8" help:"Default height in grid rows."`
	Renderer         string `help:"Custom renderer name. Empty paints the widget on the analytics surface."`
	WidgetOID        string `name:"widget-oid" help:"Surface widget identifier."`
	DashboardOID     string `name:"dashboard-oid" help:"Surface dashboard identifier."`
	Transform        string `help:"Named pre-render transform (themed, dual-axis, actual-forecast)."`
	TooltipFormatter string `name:"tooltip-formatter" help:"Named tooltip formatter for the transform."`
	HideTitle        bool   `name:"hide-title" help:"Let the chart draw its own title."`
	ManifestPath     string `name:"manifest" required:"" type:"path" help:"Catalog manifest YAML to update."`
	Overwrite        bool   `help:"Replace an existing entry with the same key."`
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	entry, err := cmd.entry()
	if err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("boardctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := upsertEntry(doc, entry, cmd.Overwrite); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %s to %s\n", entry.Key, manifestPath)
	return nil
}

// entry builds the catalog entry and checks it registers cleanly, so
// unknown transforms are caught before the manifest is touched.
func (cmd *scaffoldCmd) entry() (composer.CatalogEntry, error) {
	key := strings.TrimSpace(cmd.Key)
	if key == "" {
		key = deriveKey(cmd.Title)
	}
	if key == "" {
		return composer.CatalogEntry{}, errors.New("boardctl: cannot derive a catalog key from an empty title")
	}
	if key == composer.EmbedKey || key == composer.StyledEmbedKey {
		return composer.CatalogEntry{}, fmt.Errorf("boardctl: catalog key %s is reserved", key)
	}
	if (cmd.WidgetOID == "") != (cmd.DashboardOID == "") {
		return composer.CatalogEntry{}, errors.New("boardctl: --widget-oid and --dashboard-oid go together")
	}
	entry := composer.CatalogEntry{
		Key:              key,
		Title:            strings.TrimSpace(cmd.Title),
		Description:      cmd.Description,
		Category:         cmd.Category,
		DefaultSize:      composer.Size{W: cmd.Width, H: cmd.Height},
		Renderer:         cmd.Renderer,
		WidgetOID:        cmd.WidgetOID,
		DashboardOID:     cmd.DashboardOID,
		Transform:        cmd.Transform,
		TooltipFormatter: cmd.TooltipFormatter,
		HideTitle:        cmd.HideTitle,
	}
	if err := composer.NewCatalog(nil).Register(entry); err != nil {
		return composer.CatalogEntry{}, err
	}
	return entry, nil
}

func upsertEntry(doc *composer.CatalogManifest, entry composer.CatalogEntry, overwrite bool) error {
	for idx := range doc.Widgets {
		if doc.Widgets[idx].Key != entry.Key {
			continue
		}
		if !overwrite {
			return fmt.Errorf("boardctl: manifest already defines widget %s (use --overwrite to replace)", entry.Key)
		}
		doc.Widgets[idx] = entry
		return nil
	}
	doc.Widgets = append(doc.Widgets, entry)
	return nil
}

func deriveKey(title string) string {
	return strcase.ToKebab(strings.TrimSpace(title))
}

func loadOrInitManifest(path string) (*composer.CatalogManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &composer.CatalogManifest{
				Version: composer.ManifestVersion,
				Widgets: []composer.CatalogEntry{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("boardctl: stat manifest: %w", err)
	}
	return composer.ReadManifest(path)
}

func writeManifest(path string, doc *composer.CatalogManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("boardctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("boardctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("boardctl: write manifest: %w", err)
	}
	return nil
}
