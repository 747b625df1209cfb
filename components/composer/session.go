package composer

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ViewKind says what the content area shows.
type ViewKind string

const (
	ViewGrid     ViewKind = "grid"
	ViewExternal ViewKind = "external"
)

// External pages reachable from the header.
const (
	PageAnalytics = "analytics"
	PageAdmin     = "admin"
	PageData      = "data"
	PageUsage     = "usage"
	PageProfile   = "profile"
)

// DefaultTitle is shown while no dashboard is active.
const DefaultTitle = "Untitled dashboard"

// View is the current content area state.
type View struct {
	Kind ViewKind `json:"kind"`
	URL  string   `json:"url,omitempty"`
	Page string   `json:"page,omitempty"`
}

// SessionOptions wires a Session. Store and Theme are required.
type SessionOptions struct {
	Store     *EntityStore
	Theme     *ThemeService
	Grid      GridOptions
	Telemetry Telemetry
}

// Session orchestrates the working set: the active dashboard, the grid being
// edited, edit mode and the content view.
type Session struct {
	mu        sync.Mutex
	store     *EntityStore
	theme     *ThemeService
	grid      *Grid
	catalog   *Catalog
	telemetry Telemetry
	activeID  string
	editable  bool
	view      View
	unsub     func()
}

// NewSession builds a session with an empty working set. Theme changes are
// forwarded to the grid's viewport notifier.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("composer: session requires an entity store")
	}
	if opts.Theme == nil {
		return nil, fmt.Errorf("composer: session requires a theme service")
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Grid.Telemetry == nil {
		opts.Grid.Telemetry = opts.Telemetry
	}
	grid, err := NewGrid(opts.Grid, nil)
	if err != nil {
		return nil, err
	}
	s := &Session{
		store:     opts.Store,
		theme:     opts.Theme,
		grid:      grid,
		catalog:   grid.Options().Catalog,
		telemetry: opts.Telemetry,
		view:      View{Kind: ViewGrid},
	}
	notifier := grid.Options().Notifier
	primed := false
	unsub, err := opts.Theme.Subscribe(func(mode ThemeMode) {
		if !primed {
			primed = true
			return
		}
		_ = notifier.ViewportChanged(context.Background(), ViewEvent{Reason: ViewReasonTheme, Theme: mode})
	})
	if err != nil {
		return nil, err
	}
	s.unsub = unsub
	return s, nil
}

// Close detaches the session from its theme service and closes it. The
// session owns the service, so theme changes fail with ErrThemeClosed after.
func (s *Session) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.theme.Close()
}

// Start activates the seed's default dashboard when it exists.
func (s *Session) Start(ctx context.Context) error {
	id := s.store.DefaultDashboardID()
	if id == "" {
		return nil
	}
	if _, ok := s.store.Dashboard(id); !ok {
		return nil
	}
	_, err := s.LoadDashboard(ctx, id)
	return err
}

// Grid exposes the working grid.
func (s *Session) Grid() *Grid { return s.grid }

// Store exposes the entity store.
func (s *Session) Store() *EntityStore { return s.store }

// Theme exposes the theme service.
func (s *Session) Theme() *ThemeService { return s.theme }

// Catalog exposes the catalog used for resolution.
func (s *Session) Catalog() *Catalog { return s.catalog }

// ActiveDashboardID returns the active dashboard id, or "" for none.
func (s *Session) ActiveDashboardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// View returns the current content view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Editable reports whether grid items may be dragged and resized.
func (s *Session) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editable
}

// ToggleEditMode flips edit mode and returns the new state.
func (s *Session) ToggleEditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editable = !s.editable
	return s.editable
}

// Layouts returns the grid layout map with static items outside edit mode.
func (s *Session) Layouts() map[string][]GridItem {
	return s.grid.Layouts(s.Editable())
}

// Title is the active dashboard's name.
func (s *Session) Title() string {
	if d, ok := s.store.Dashboard(s.ActiveDashboardID()); ok {
		return d.Name
	}
	return DefaultTitle
}

// LoadDashboard makes id active. External dashboards switch to the external
// view; grid dashboards replace the working set and apply their theme.
func (s *Session) LoadDashboard(ctx context.Context, id string) (View, error) {
	d, ok := s.store.Dashboard(id)
	if !ok {
		return s.View(), fmt.Errorf("%w: %s", ErrDashboardNotFound, id)
	}
	if err := s.grid.Replace(d.WidgetInstances); err != nil {
		return s.View(), err
	}
	s.mu.Lock()
	s.activeID = d.ID
	if d.IsExternal() {
		s.view = View{Kind: ViewExternal, URL: d.IframeURL, Page: PageAnalytics}
	} else {
		s.view = View{Kind: ViewGrid}
	}
	view := s.view
	s.mu.Unlock()

	if !d.IsExternal() {
		if err := s.theme.SetTheme(ctx, d.Theme.OrDefault(ThemeDark)); err != nil {
			return view, err
		}
	}
	s.telemetry.Record(ctx, "composer.session.loaded", map[string]any{
		"dashboard_id": d.ID,
		"view":         string(view.Kind),
	})
	return view, nil
}

// NewDashboard clears the active dashboard and the working set.
func (s *Session) NewDashboard() View {
	_ = s.grid.Replace(nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = ""
	s.view = View{Kind: ViewGrid}
	return s.view
}

// ShowExternal switches the content area to an external page.
func (s *Session) ShowExternal(url, page string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = View{Kind: ViewExternal, URL: strings.TrimSpace(url), Page: page}
	return s.view
}

// ShowDashboard returns the content area to the grid.
func (s *Session) ShowDashboard() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = View{Kind: ViewGrid}
	return s.view
}

// ExternalURL resolves the page an external dashboard opens in a new window.
func (s *Session) ExternalURL(id string) (string, bool) {
	d, ok := s.store.Dashboard(id)
	if !ok || !d.IsExternal() {
		return "", false
	}
	return d.IframeURL, true
}

// SaveAs stores the working set as a new dashboard and activates it.
func (s *Session) SaveAs(ctx context.Context, folderID, name string) (Dashboard, error) {
	d, err := s.store.AddDashboard(ctx, DashboardInput{
		Name:            name,
		FolderID:        folderID,
		WidgetInstances: s.grid.Instances(),
		Theme:           s.theme.Theme(),
	})
	if err != nil {
		return Dashboard{}, err
	}
	s.mu.Lock()
	s.activeID = d.ID
	s.view = View{Kind: ViewGrid}
	s.mu.Unlock()
	return d, nil
}

// Save overwrites the active dashboard's widgets and theme. Saving over a
// seed dashboard forks it and the fork becomes active.
func (s *Session) Save(ctx context.Context) (Dashboard, error) {
	active := s.ActiveDashboardID()
	if active == "" {
		return Dashboard{}, ErrNoActiveDashboard
	}
	d, ok, err := s.store.UpdateDashboardContent(ctx, active, s.grid.Instances(), s.theme.Theme())
	if err != nil {
		return Dashboard{}, err
	}
	if !ok {
		return Dashboard{}, fmt.Errorf("%w: %s was removed", ErrNoActiveDashboard, active)
	}
	s.follow(active, d.ID)
	return d, nil
}

// follow moves the active id when an edit forked the active dashboard.
func (s *Session) follow(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == from {
		s.activeID = to
	}
}

// RenameActive renames the active dashboard. Blank names are ignored.
func (s *Session) RenameActive(ctx context.Context, name string) (Dashboard, bool, error) {
	active := s.ActiveDashboardID()
	if active == "" {
		return Dashboard{}, false, ErrNoActiveDashboard
	}
	if strings.TrimSpace(name) == "" {
		return Dashboard{}, false, nil
	}
	return s.RenameDashboard(ctx, active, name)
}

// RenameDashboard renames any dashboard, following a fork of the active one.
func (s *Session) RenameDashboard(ctx context.Context, id, name string) (Dashboard, bool, error) {
	d, ok, err := s.store.RenameDashboard(ctx, id, name)
	if err != nil || !ok {
		return d, ok, err
	}
	s.follow(id, d.ID)
	return d, true, nil
}

// AddFolder creates a folder.
func (s *Session) AddFolder(ctx context.Context, name, color string) (Folder, error) {
	return s.store.AddFolder(ctx, name, color)
}

// UpdateFolder renames or recolors a folder.
func (s *Session) UpdateFolder(ctx context.Context, id string, patch FolderPatch) (Folder, bool, error) {
	return s.store.UpdateFolder(ctx, id, patch)
}

// DeleteDashboard removes a dashboard, clearing the working set when it was active.
func (s *Session) DeleteDashboard(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.DeleteDashboard(ctx, id)
	if ok && err == nil {
		s.clearIfActive(id)
	}
	return ok, err
}

// DeleteFolder removes a folder and its dashboards, clearing the working set
// when the active dashboard was among them.
func (s *Session) DeleteFolder(ctx context.Context, id string) (FolderDeletion, error) {
	result, err := s.store.DeleteFolder(ctx, id)
	if result.Found && err == nil {
		s.clearIfActive(result.Dashboards...)
	}
	return result, err
}

func (s *Session) clearIfActive(ids ...string) {
	s.mu.Lock()
	active := s.activeID
	hit := false
	for _, id := range ids {
		if id != "" && id == active {
			hit = true
			s.activeID = ""
			break
		}
	}
	s.mu.Unlock()
	if hit {
		_ = s.grid.Replace(nil)
	}
}

// Panel builds the side-panel view model.
func (s *Session) Panel(search string) Panel {
	panel := BuildPanel(s.store.Folders(), s.store.Dashboards(), search)
	panel.ActiveDashboardID = s.ActiveDashboardID()
	return panel
}

// RenderPlan is everything the rendering surface needs to paint one widget.
type RenderPlan struct {
	InstanceID   string           `json:"instanceId"`
	Kind         WidgetKind       `json:"kind"`
	Renderer     string           `json:"renderer"`
	Title        string           `json:"title,omitempty"`
	WidgetOID    string           `json:"widgetOid,omitempty"`
	DashboardOID string           `json:"dashboardOid,omitempty"`
	StyleOptions *StyleOptions    `json:"styleOptions,omitempty"`
	Theme        ThemeMode        `json:"theme"`
	EmbedCode    string           `json:"embedCode,omitempty"`
	Layout       GridItem         `json:"layout"`
	Transform    string           `json:"transform,omitempty"`
	BeforeRender BeforeRenderHook `json:"-"`
}

// RenderPlans resolves every working widget against the catalog.
func (s *Session) RenderPlans() []RenderPlan {
	theme := s.theme.Theme()
	instances := s.grid.Instances()
	plans := make([]RenderPlan, 0, len(instances))
	for _, inst := range instances {
		plans = append(plans, PlanWidget(s.catalog.Merge(inst), theme))
	}
	return plans
}

// PlanWidget decides how one resolved widget is painted.
func PlanWidget(w ResolvedWidget, theme ThemeMode) RenderPlan {
	inst := w.Instance
	plan := RenderPlan{
		InstanceID: inst.InstanceID,
		Kind:       inst.Kind,
		Renderer:   w.Renderer,
		Theme:      theme,
		Layout:     inst.Layout,
	}
	switch {
	case inst.Kind == KindStyledEmbed && inst.Styled != nil && w.WidgetOID != "" && w.DashboardOID != "":
		style := StyleOptionsFromConfig(inst.Styled.Style)
		plan.Renderer = RendererSurface
		plan.WidgetOID = w.WidgetOID
		plan.DashboardOID = w.DashboardOID
		plan.StyleOptions = &style
		plan.BeforeRender = StyledBeforeRender(inst.Styled.Style)
		return plan
	case inst.Kind == KindEmbed && inst.Embed != nil && inst.Embed.Code != "":
		plan.Renderer = RendererCodeBlock
		plan.EmbedCode = inst.Embed.Code
		return plan
	case w.Renderer != RendererSurface && w.Renderer != RendererCodeBlock:
		plan.WidgetOID = w.WidgetOID
		plan.DashboardOID = w.DashboardOID
		return plan
	}

	style := DefaultStyleOptions(theme)
	plan.Renderer = RendererSurface
	plan.WidgetOID = w.WidgetOID
	plan.DashboardOID = w.DashboardOID
	plan.StyleOptions = &style
	plan.Title = w.Title
	if w.Entry != nil {
		if w.Entry.HideTitle {
			plan.Title = ""
		}
		if transform := w.Entry.PreRender(); transform != nil {
			env := RenderEnv{Theme: theme, GridLines: inst.GridLineStyle()}
			plan.Transform = w.Entry.Transform
			plan.BeforeRender = func(opts ChartOptions) ChartOptions {
				return transform(opts, env)
			}
		}
	}
	return plan
}

// CurrentTheme returns the theme service's mode.
func (s *Session) CurrentTheme() ThemeMode { return s.theme.Theme() }
