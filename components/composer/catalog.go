package composer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Renderer names. Entries without a renderer are painted by the rendering
// surface from their OIDs.
const (
	RendererSurface   = "surface"
	RendererCodeBlock = "code-block"
)

// DefaultWidgetSize applies to catalog entries registered without a size.
var DefaultWidgetSize = Size{W: 6, H: 8}

// CatalogEntry is the static definition of a widget the analyst can add.
type CatalogEntry struct {
	Key              string `json:"key" yaml:"key"`
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	Category         string `json:"category,omitempty" yaml:"category,omitempty"`
	DefaultSize      Size   `json:"defaultSize" yaml:"default_size"`
	Renderer         string `json:"renderer,omitempty" yaml:"renderer,omitempty"`
	WidgetOID        string `json:"widgetOid,omitempty" yaml:"widget_oid,omitempty"`
	DashboardOID     string `json:"dashboardOid,omitempty" yaml:"dashboard_oid,omitempty"`
	Transform        string `json:"transform,omitempty" yaml:"transform,omitempty"`
	TooltipFormatter string `json:"tooltipFormatter,omitempty" yaml:"tooltip_formatter,omitempty"`
	HideTitle        bool   `json:"hideTitle,omitempty" yaml:"hide_title,omitempty"`

	preRender Transform
}

// PreRender returns the transform resolved when the entry was registered.
func (e CatalogEntry) PreRender() Transform {
	return e.preRender
}

// CatalogHook lets packages register catalog entries during init().
type CatalogHook func(c *Catalog) error

var (
	catalogHookMu sync.Mutex
	catalogHooks  []CatalogHook
)

// RegisterCatalogHook registers a hook executed against new catalogs.
func RegisterCatalogHook(h CatalogHook) {
	catalogHookMu.Lock()
	defer catalogHookMu.Unlock()
	catalogHooks = append(catalogHooks, h)
}

// Catalog resolves catalog keys to entries.
type Catalog struct {
	mu         sync.RWMutex
	entries    map[string]CatalogEntry
	order      []string
	transforms *TransformRegistry
}

// NewCatalog builds a catalog holding the default entries plus anything
// registered through hooks. A nil registry uses the built-in transforms.
func NewCatalog(transforms *TransformRegistry) *Catalog {
	if transforms == nil {
		transforms = NewTransformRegistry()
	}
	c := &Catalog{
		entries:    map[string]CatalogEntry{},
		transforms: transforms,
	}
	for _, entry := range DefaultCatalogEntries() {
		_ = c.Register(entry)
	}
	_ = c.ApplyHooks()
	return c
}

// ApplyHooks executes registered catalog hooks.
func (c *Catalog) ApplyHooks() error {
	catalogHookMu.Lock()
	defer catalogHookMu.Unlock()
	for _, hook := range catalogHooks {
		if err := hook(c); err != nil {
			return err
		}
	}
	return nil
}

// Register adds or replaces an entry. The entry's transform and formatter
// names are resolved here; unknown names fail registration.
func (c *Catalog) Register(entry CatalogEntry) error {
	entry.Key = strings.TrimSpace(entry.Key)
	if entry.Key == "" {
		return fmt.Errorf("composer: catalog entry key is required")
	}
	if entry.Title == "" {
		entry.Title = entry.Key
	}
	if entry.DefaultSize.W <= 0 || entry.DefaultSize.H <= 0 {
		entry.DefaultSize = DefaultWidgetSize
	}
	if entry.TooltipFormatter != "" && entry.Transform == "" {
		return fmt.Errorf("%w: catalog entry %s names a tooltip formatter without a transform", ErrUnknownTransform, entry.Key)
	}
	transform, err := c.transforms.Resolve(entry.Transform, entry.TooltipFormatter)
	if err != nil {
		return fmt.Errorf("composer: catalog entry %s: %w", entry.Key, err)
	}
	entry.preRender = transform

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[entry.Key]; !exists {
		c.order = append(c.order, entry.Key)
	}
	c.entries[entry.Key] = entry
	return nil
}

// Resolve returns the entry for key. Unknown keys are not an error.
func (c *Catalog) Resolve(key string) (CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Entries lists entries in registration order.
func (c *Catalog) Entries() []CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CatalogEntry, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.entries[key])
	}
	return out
}

// ResolvedWidget is an instance merged with its catalog entry.
type ResolvedWidget struct {
	Instance     WidgetInstance
	Entry        *CatalogEntry
	Title        string
	WidgetOID    string
	DashboardOID string
	Renderer     string
}

// Merge combines an instance with its catalog entry; instance fields take
// precedence. Unknown keys resolve with a nil Entry and the surface renderer.
func (c *Catalog) Merge(inst WidgetInstance) ResolvedWidget {
	resolved := ResolvedWidget{
		Instance: inst.clone(),
		Title:    inst.Title,
		Renderer: RendererSurface,
	}
	if entry, ok := c.Resolve(inst.CatalogKey); ok {
		resolved.Entry = &entry
		if resolved.Title == "" {
			resolved.Title = entry.Title
		}
		resolved.WidgetOID = entry.WidgetOID
		resolved.DashboardOID = entry.DashboardOID
		if entry.Renderer != "" {
			resolved.Renderer = entry.Renderer
		}
	}
	if resolved.Title == "" {
		resolved.Title = inst.CatalogKey
	}
	switch inst.Kind {
	case KindStyledEmbed:
		if inst.Styled != nil {
			resolved.WidgetOID = inst.Styled.WidgetOID
			resolved.DashboardOID = inst.Styled.DashboardOID
		}
		resolved.Renderer = RendererSurface
	case KindEmbed:
		resolved.Renderer = RendererCodeBlock
	}
	return resolved
}

// Search matches term case-insensitively against keys and titles. When
// nothing matches, entries with a title word within edit distance 2 of the
// term are returned instead.
func (c *Catalog) Search(term string) []CatalogEntry {
	entries := c.Entries()
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}
	var out []CatalogEntry
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Key), term) || strings.Contains(strings.ToLower(entry.Title), term) {
			out = append(out, entry)
		}
	}
	if len(out) > 0 || len(term) < 3 {
		return out
	}
	for _, entry := range entries {
		for _, word := range strings.Fields(strings.ToLower(entry.Title)) {
			if levenshtein.ComputeDistance(word, term) <= 2 {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}
