package composer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the catalog manifest format understood by this package.
const ManifestVersion = "1"

// CatalogManifest is a YAML document describing catalog entries and,
// optionally, seed folders and dashboards.
type CatalogManifest struct {
	Version string         `json:"version" yaml:"version"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets []CatalogEntry `json:"widgets" yaml:"widgets"`
	Seed    *SeedData      `json:"seed,omitempty" yaml:"seed,omitempty"`
	Source  string         `json:"-" yaml:"-"`
}

// ReadManifest loads a manifest file without registering it.
func ReadManifest(path string) (*CatalogManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("composer: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("composer: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest parses a manifest, rejecting unknown fields.
func DecodeManifest(r io.Reader) (*CatalogManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc CatalogManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("composer: manifest is empty")
		}
		return nil, fmt.Errorf("composer: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = ManifestVersion
	}
	if doc.Seed != nil {
		normalizeSeed(doc.Seed)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks version, keys and seed widget identity.
func (doc *CatalogManifest) Validate() error {
	if doc.Version != ManifestVersion {
		return fmt.Errorf("composer: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		if widget.Key == "" {
			return fmt.Errorf("composer: manifest widget at index %d is missing key", idx)
		}
		if _, exists := seen[widget.Key]; exists {
			return fmt.Errorf("composer: manifest duplicates widget key %s", widget.Key)
		}
		seen[widget.Key] = struct{}{}
	}
	if doc.Seed != nil {
		if err := validateSeed(*doc.Seed); err != nil {
			return fmt.Errorf("composer: manifest seed: %w", err)
		}
	}
	return nil
}

// LoadManifestDocument registers every manifest entry.
func (c *Catalog) LoadManifestDocument(doc *CatalogManifest) error {
	if doc == nil {
		return fmt.Errorf("composer: manifest document is nil")
	}
	for _, widget := range doc.Widgets {
		if err := c.Register(widget); err != nil {
			return fmt.Errorf("composer: register widget %s from %s: %w", widget.Key, doc.Source, err)
		}
	}
	return nil
}

// LoadManifestFile reads a manifest from disk and registers it.
func (c *Catalog) LoadManifestFile(path string) (*CatalogManifest, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := c.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalizeSeed infers widget kinds that hand-written manifests leave out.
func normalizeSeed(seed *SeedData) {
	for i := range seed.Dashboards {
		widgets := seed.Dashboards[i].WidgetInstances
		for j := range widgets {
			w := &widgets[j]
			if w.Kind == "" {
				w.Kind = kindForKey(w.CatalogKey)
			}
			if w.Layout.I == "" {
				w.Layout.I = w.InstanceID
			}
			if w.Kind == KindCatalog && w.Catalog == nil {
				w.Catalog = &CatalogWidget{}
			}
		}
		if seed.Dashboards[i].WidgetInstances == nil && seed.Dashboards[i].IframeURL == "" {
			seed.Dashboards[i].WidgetInstances = []WidgetInstance{}
		}
	}
}
