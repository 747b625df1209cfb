package composer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Breakpoint is one responsive grid breakpoint.
type Breakpoint struct {
	Name     string `json:"name"`
	MinWidth int    `json:"minWidth"`
	Columns  int    `json:"columns"`
}

// Breakpoints lists the responsive breakpoints, widest first.
func Breakpoints() []Breakpoint {
	return []Breakpoint{
		{Name: "lg", MinWidth: 1200, Columns: 12},
		{Name: "md", MinWidth: 996, Columns: 10},
		{Name: "sm", MinWidth: 768, Columns: 6},
		{Name: "xs", MinWidth: 480, Columns: 4},
		{Name: "xxs", MinWidth: 2, Columns: 2},
	}
}

// GridOptions configures a Grid. Zero values fall back to the defaults of the
// twelve-column layout.
type GridOptions struct {
	Columns      int
	RowHeight    int
	Margin       int
	ApproxWidth  int
	ResizeSettle time.Duration
	Notifier     ViewportNotifier
	IDs          IDGenerator
	Catalog      *Catalog
	Telemetry    Telemetry
}

// DefaultResizeSettle is how long a finished resize waits before widgets are
// told to re-measure, leaving room for the grid's CSS transition.
const DefaultResizeSettle = 150 * time.Millisecond

func (o GridOptions) normalized() GridOptions {
	if o.Columns <= 0 {
		o.Columns = 12
	}
	if o.RowHeight <= 0 {
		o.RowHeight = 100
	}
	switch {
	case o.Margin == 0:
		o.Margin = 10
	case o.Margin < 0: // explicit "no margin"
		o.Margin = 0
	}
	if o.ApproxWidth <= 0 {
		o.ApproxWidth = 1200
	}
	if o.ResizeSettle <= 0 {
		o.ResizeSettle = DefaultResizeSettle
	}
	if o.Notifier == nil {
		o.Notifier = noopNotifier{}
	}
	o.IDs = normalizeIDs(o.IDs)
	if o.Catalog == nil {
		o.Catalog = NewCatalog(nil)
	}
	o.Telemetry = normalizeTelemetry(o.Telemetry)
	return o
}

type noopNotifier struct{}

func (noopNotifier) ViewportChanged(context.Context, ViewEvent) error { return nil }

// Grid keeps the working widget list and the grid layout in a 1:1
// correspondence: every instance's layout.i equals its instance id.
type Grid struct {
	mu        sync.Mutex
	opts      GridOptions
	instances []WidgetInstance
	pending   sync.WaitGroup
}

// NewGrid builds a grid over an initial working set.
func NewGrid(opts GridOptions, instances []WidgetInstance) (*Grid, error) {
	g := &Grid{opts: opts.normalized()}
	if err := g.Replace(instances); err != nil {
		return nil, err
	}
	return g, nil
}

// Options returns the normalized options.
func (g *Grid) Options() GridOptions {
	return g.opts
}

// Replace swaps the whole working set.
func (g *Grid) Replace(instances []WidgetInstance) error {
	if err := ValidateInstances(instances); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances = cloneInstances(instances)
	if g.instances == nil {
		g.instances = []WidgetInstance{}
	}
	return nil
}

// Instances returns a copy of the working set in insertion order.
func (g *Grid) Instances() []WidgetInstance {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := cloneInstances(g.instances)
	if out == nil {
		out = []WidgetInstance{}
	}
	return out
}

// Instance looks up one working instance.
func (g *Grid) Instance(id string) (WidgetInstance, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if idx := g.index(id); idx >= 0 {
		return g.instances[idx].clone(), true
	}
	return WidgetInstance{}, false
}

// Len reports the number of working instances.
func (g *Grid) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.instances)
}

func (g *Grid) index(id string) int {
	for i, inst := range g.instances {
		if inst.InstanceID == id {
			return i
		}
	}
	return -1
}

// Layouts returns the breakpoint layout map consumed by the grid surface.
// Items are static unless the grid is editable.
func (g *Grid) Layouts(editable bool) map[string][]GridItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	items := make([]GridItem, len(g.instances))
	for i, inst := range g.instances {
		item := inst.Layout
		item.Static = !editable
		items[i] = item
	}
	return map[string][]GridItem{"lg": items}
}

// ApplyLayoutChange reconciles a full layout batch. Instances whose id is in
// the batch take the new layout; instances missing from the batch are
// dropped, as are batch items that match no instance. Insertion order is kept.
func (g *Grid) ApplyLayoutChange(items []GridItem) []WidgetInstance {
	byID := make(map[string]GridItem, len(items))
	for _, item := range items {
		if _, dup := byID[item.I]; !dup {
			byID[item.I] = item
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := make([]WidgetInstance, 0, len(items))
	for _, inst := range g.instances {
		item, ok := byID[inst.InstanceID]
		if !ok {
			continue
		}
		item.Static = false
		inst.Layout = item
		kept = append(kept, inst)
	}
	g.instances = kept
	return cloneInstances(kept)
}

// ResizeStop applies the final layout of a resize gesture to the matching
// instance only, then schedules a viewport notification after ResizeSettle.
// Every call schedules its own notification; none are cancelled.
func (g *Grid) ResizeStop(ctx context.Context, _ []GridItem, _ GridItem, newItem GridItem) []WidgetInstance {
	newItem.Static = false
	g.mu.Lock()
	if idx := g.index(newItem.I); idx >= 0 {
		g.instances[idx].Layout = newItem
	}
	out := cloneInstances(g.instances)
	g.mu.Unlock()

	event := ViewEvent{Reason: ViewReasonResize, InstanceID: newItem.I, Layout: &newItem}
	notifyCtx := context.WithoutCancel(ctx)
	g.pending.Add(1)
	time.AfterFunc(g.opts.ResizeSettle, func() {
		defer g.pending.Done()
		if err := g.opts.Notifier.ViewportChanged(notifyCtx, event); err != nil {
			g.opts.Telemetry.Record(notifyCtx, "composer.grid.notify_failed", map[string]any{
				"instance_id": newItem.I,
				"error":       err.Error(),
			})
		}
	})
	return out
}

// WaitSettled blocks until every scheduled resize notification has fired.
func (g *Grid) WaitSettled() {
	g.pending.Wait()
}

// PixelSize converts a pixel size into grid units using the approximate
// column width, clamped to the grid.
func (g *Grid) PixelSize(width, height float64) Size {
	colWidth := float64(g.opts.ApproxWidth)/float64(g.opts.Columns) + float64(g.opts.Margin)
	rowHeight := float64(g.opts.RowHeight + g.opts.Margin)
	w := int(math.Ceil(width / colWidth))
	h := int(math.Ceil(height / rowHeight))
	w = max(1, min(w, g.opts.Columns))
	h = max(1, h)
	return Size{W: w, H: h}
}

// place appends a new instance at the bottom, stepping x by step columns per
// existing instance.
func (g *Grid) place(ctx context.Context, prefix string, step int, size Size, build func() WidgetInstance) WidgetInstance {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := uniqueID(g.opts.IDs, prefix, func(candidate string) bool { return g.index(candidate) >= 0 })
	inst := build()
	inst.InstanceID = id
	inst.Layout = GridItem{
		I: id,
		X: (len(g.instances) * step) % g.opts.Columns,
		Y: PlaceAtBottom,
		W: size.W,
		H: size.H,
	}
	g.instances = append(g.instances, inst)
	g.opts.Telemetry.Record(ctx, "composer.widget.added", map[string]any{
		"instance_id": id,
		"kind":        string(inst.Kind),
	})
	return inst.clone()
}

// AddCatalogWidget appends a catalog widget. The catalog default size is used
// unless override is set; unknown keys need an override.
func (g *Grid) AddCatalogWidget(ctx context.Context, key string, override *Size) (WidgetInstance, error) {
	key = strings.TrimSpace(key)
	if key == EmbedKey || key == StyledEmbedKey {
		return WidgetInstance{}, fmt.Errorf("%w: %s is reserved for embeds", ErrUnknownCatalogKey, key)
	}
	entry, ok := g.opts.Catalog.Resolve(key)
	if !ok && override == nil {
		return WidgetInstance{}, fmt.Errorf("%w: %s", ErrUnknownCatalogKey, key)
	}
	size := entry.DefaultSize
	if override != nil {
		size = *override
	}
	if size.W <= 0 || size.H <= 0 {
		size = DefaultWidgetSize
	}
	size.W = min(size.W, g.opts.Columns)
	return g.place(ctx, key, size.W, size, func() WidgetInstance {
		return WidgetInstance{Kind: KindCatalog, CatalogKey: key, Catalog: &CatalogWidget{}}
	}), nil
}

// AddEmbed appends a raw embed (URL, HTML or SDK snippet) sized 6x8.
func (g *Grid) AddEmbed(ctx context.Context, code string) (WidgetInstance, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return WidgetInstance{}, fmt.Errorf("%w: embed code is required", ErrInvalidWidgets)
	}
	size := Size{W: min(6, g.opts.Columns), H: 8}
	return g.place(ctx, EmbedKey, 6, size, func() WidgetInstance {
		return WidgetInstance{Kind: KindEmbed, CatalogKey: EmbedKey, Embed: &EmbedWidget{Code: code}}
	}), nil
}

// AddStyledEmbed appends a styled embed sized from its pixel dimensions.
func (g *Grid) AddStyledEmbed(ctx context.Context, styled StyledWidget) (WidgetInstance, error) {
	if err := validateStyled(styled); err != nil {
		return WidgetInstance{}, err
	}
	size := g.PixelSize(styled.Style.Width, styled.Style.Height)
	return g.place(ctx, StyledEmbedKey, 6, size, func() WidgetInstance {
		copied := styled
		return WidgetInstance{Kind: KindStyledEmbed, CatalogKey: StyledEmbedKey, Styled: &copied}
	}), nil
}

func validateStyled(styled StyledWidget) error {
	if strings.TrimSpace(styled.WidgetOID) == "" || strings.TrimSpace(styled.DashboardOID) == "" {
		return fmt.Errorf("%w: styled embed requires widget and dashboard OIDs", ErrInvalidWidgets)
	}
	return ValidateStyleConfig(styled.Style)
}

// UpdateEmbed replaces an instance's payload with a raw embed, keeping its layout.
func (g *Grid) UpdateEmbed(ctx context.Context, id, code string) (WidgetInstance, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return WidgetInstance{}, fmt.Errorf("%w: embed code is required", ErrInvalidWidgets)
	}
	return g.update(ctx, id, func(inst *WidgetInstance) error {
		inst.Kind = KindEmbed
		inst.CatalogKey = EmbedKey
		inst.Embed = &EmbedWidget{Code: code}
		inst.Catalog, inst.Styled = nil, nil
		return nil
	})
}

// UpdateStyledEmbed replaces an instance's payload with a styled embed and
// resizes it from the new pixel dimensions.
func (g *Grid) UpdateStyledEmbed(ctx context.Context, id string, styled StyledWidget) (WidgetInstance, error) {
	if err := validateStyled(styled); err != nil {
		return WidgetInstance{}, err
	}
	size := g.PixelSize(styled.Style.Width, styled.Style.Height)
	return g.update(ctx, id, func(inst *WidgetInstance) error {
		copied := styled
		inst.Kind = KindStyledEmbed
		inst.CatalogKey = StyledEmbedKey
		inst.Styled = &copied
		inst.Catalog, inst.Embed = nil, nil
		inst.Layout.W = size.W
		inst.Layout.H = size.H
		return nil
	})
}

// SetGridLineStyle changes the grid-line mode of a catalog or styled widget.
func (g *Grid) SetGridLineStyle(ctx context.Context, id string, style GridLineStyle) (WidgetInstance, error) {
	if !style.Valid() {
		return WidgetInstance{}, fmt.Errorf("%w: unknown grid line style %q", ErrInvalidWidgets, style)
	}
	return g.update(ctx, id, func(inst *WidgetInstance) error {
		switch inst.Kind {
		case KindCatalog:
			if inst.Catalog == nil {
				inst.Catalog = &CatalogWidget{}
			}
			inst.Catalog.GridLineStyle = style
		case KindStyledEmbed:
			inst.Styled.Style.GridLineStyle = style
		default:
			return fmt.Errorf("%w: %s widgets have no grid lines", ErrInvalidWidgets, inst.Kind)
		}
		return nil
	})
}

func (g *Grid) update(ctx context.Context, id string, edit func(*WidgetInstance) error) (WidgetInstance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.index(id)
	if idx < 0 {
		return WidgetInstance{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	inst := g.instances[idx].clone()
	if err := edit(&inst); err != nil {
		return WidgetInstance{}, err
	}
	g.instances[idx] = inst
	g.opts.Telemetry.Record(ctx, "composer.widget.updated", map[string]any{
		"instance_id": id,
		"kind":        string(inst.Kind),
	})
	return inst.clone(), nil
}

// Remove drops an instance by id and reports whether it existed.
func (g *Grid) Remove(ctx context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.index(id)
	if idx < 0 {
		return false
	}
	g.instances = append(g.instances[:idx:idx], g.instances[idx+1:]...)
	g.opts.Telemetry.Record(ctx, "composer.widget.removed", map[string]any{"instance_id": id})
	return true
}
