package composer

import (
	"context"
	"errors"
	"io"
)

// DefaultWorkspaceTemplate is the embedded page template.
const DefaultWorkspaceTemplate = "workspace.html"

// Workspace is the read side of a session the controller renders.
type Workspace interface {
	Panel(search string) Panel
	Title() string
	View() View
	Editable() bool
	CurrentTheme() ThemeMode
	RenderPlans() []RenderPlan
	Layouts() map[string][]GridItem
}

// ControllerOptions wires a Controller.
type ControllerOptions struct {
	Workspace Workspace
	Renderer  Renderer
	Template  string
	Telemetry Telemetry
}

// Controller renders the workspace page: header, side panel and grid.
type Controller struct {
	workspace Workspace
	renderer  Renderer
	template  string
	telemetry Telemetry
}

// NewController wires the workspace into a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = DefaultWorkspaceTemplate
	}
	return &Controller{
		workspace: opts.Workspace,
		renderer:  opts.Renderer,
		template:  tpl,
		telemetry: normalizeTelemetry(opts.Telemetry),
	}
}

// ViewModel builds the template payload. The renderer converts it through
// JSON, so templates read the json keys (panel.groups, w.instanceId).
func (c *Controller) ViewModel(search string) map[string]any {
	if c.workspace == nil {
		return map[string]any{}
	}
	theme := c.workspace.CurrentTheme()
	return map[string]any{
		"title":    c.workspace.Title(),
		"theme":    string(theme),
		"surface":  SurfaceTheme(theme),
		"page":     pageColors(theme),
		"view":     c.workspace.View(),
		"editable": c.workspace.Editable(),
		"panel":    c.workspace.Panel(search),
		"widgets":  c.workspace.RenderPlans(),
		"layouts":  c.workspace.Layouts(),
	}
}

// RenderTemplate renders the workspace page into out.
func (c *Controller) RenderTemplate(ctx context.Context, search string, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("composer: controller requires a renderer")
	}
	data := c.ViewModel(search)
	if _, err := c.renderer.Render(c.template, data, out); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "composer.workspace.rendered", map[string]any{
		"template": c.template,
		"search":   search,
	})
	return nil
}

func pageColors(theme ThemeMode) map[string]string {
	if theme == ThemeLight {
		return map[string]string{"background": "#FFFFFF", "text": "#1C1C1E", "border": "#EAEBEF"}
	}
	return map[string]string{"background": "#1C1C1E", "text": "#FFFFFF", "border": "#444446"}
}
