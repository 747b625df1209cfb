package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type manifestCatalog interface {
	LoadManifestFile(path string) (*composer.CatalogManifest, error)
}

// LoadManifestInput points at a catalog manifest on disk.
type LoadManifestInput struct {
	Path string `json:"path"`
}

// LoadManifestCommand registers the entries of a catalog manifest.
type LoadManifestCommand struct {
	catalog   manifestCatalog
	telemetry Telemetry
}

// NewLoadManifestCommand wires dependencies.
func NewLoadManifestCommand(catalog manifestCatalog, telemetry Telemetry) *LoadManifestCommand {
	return &LoadManifestCommand{catalog: catalog, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadManifestInput] = (*LoadManifestCommand)(nil)

// Execute reads, validates and registers the manifest.
func (c *LoadManifestCommand) Execute(ctx context.Context, msg LoadManifestInput) error {
	if c.catalog == nil {
		return errors.New("manifest command requires catalog")
	}
	if msg.Path == "" {
		return errors.New("manifest command requires path")
	}
	doc, err := c.catalog.LoadManifestFile(msg.Path)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "composer.command.manifest_loaded", map[string]any{
		"path":    msg.Path,
		"widgets": len(doc.Widgets),
	})
	return nil
}
