package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
	"github.com/goliatone/go-dashboard-composer/components/composer/commands"
	"github.com/goliatone/go-dashboard-composer/components/composer/httpapi"
	"github.com/goliatone/go-dashboard-composer/components/composer/queries"
)

// Mounter is the part of router.Router[T] the composer routes use. Any
// go-router router or group satisfies it.
type Mounter interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// Config wires go-router with the composer controller, API and view events.
type Config struct {
	Router     Mounter
	Controller *composer.Controller
	API        httpapi.Executor
	Broadcast  *composer.BroadcastHook
	BasePath   string
	Routes     RouteConfig
}

// RouteConfig customizes the relative paths used for composer endpoints.
type RouteConfig struct {
	HTML          string
	Workspace     string
	Panel         string
	Catalog       string
	Folders       string
	FolderID      string
	Dashboards    string
	DashboardID   string
	DashboardLoad string
	Widgets       string
	WidgetID      string
	Layout        string
	Theme         string
	EditMode      string
	View          string
	WebSocket     string
}

// requestContext is the slice of router.Context the handlers touch.
type requestContext interface {
	Context() context.Context
	Body() []byte
	Param(name string, defaultValue ...string) string
	Query(name string, defaultValue ...string) string
	JSON(code int, v any) error
	Send(body []byte) error
	SetHeader(key, value string) router.Context
}

type endpoint struct {
	method string
	path   string
	handle func(requestContext) error
}

// Register mounts composer routes (HTML, JSON, WebSocket) on a go-router router.
func Register(cfg Config) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	base := strings.TrimRight(cfg.BasePath, "/")
	if cfg.BasePath == "" {
		base = "/app"
	}
	for _, ep := range cfg.endpoints() {
		handle := ep.handle
		handler := func(ctx router.Context) error { return handle(ctx) }
		switch ep.method {
		case http.MethodGet:
			cfg.Router.Get(base+ep.path, handler)
		case http.MethodPost:
			cfg.Router.Post(base+ep.path, handler)
		case http.MethodDelete:
			cfg.Router.Delete(base+ep.path, handler)
		}
	}
	if cfg.Broadcast != nil {
		registerWebSocket(cfg.Router, cfg.Broadcast, base+cfg.routes().WebSocket)
	}
	return nil
}

func (cfg Config) endpoints() []endpoint {
	routes := cfg.routes()
	out := []endpoint{
		{http.MethodGet, routes.HTML, func(ctx requestContext) error {
			var buf bytes.Buffer
			if err := cfg.Controller.RenderTemplate(ctx.Context(), ctx.Query("search"), &buf); err != nil {
				return respondError(ctx, http.StatusInternalServerError, err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}},
	}
	if cfg.API != nil {
		out = append(out, apiEndpoints(cfg.API, routes)...)
	}
	return out
}

func apiEndpoints(api httpapi.Executor, routes RouteConfig) []endpoint {
	return []endpoint{
		{http.MethodGet, routes.Workspace, func(ctx requestContext) error {
			ws, err := api.Workspace(ctx.Context(), queries.WorkspaceInput{})
			return reply(ctx, http.StatusOK, ws, err)
		}},
		{http.MethodGet, routes.Panel, func(ctx requestContext) error {
			panel, err := api.Panel(ctx.Context(), queries.PanelInput{Search: ctx.Query("search")})
			return reply(ctx, http.StatusOK, panel, err)
		}},
		{http.MethodGet, routes.Catalog, func(ctx requestContext) error {
			entries, err := api.Catalog(ctx.Context(), queries.CatalogInput{Term: ctx.Query("q")})
			return reply(ctx, http.StatusOK, entries, err)
		}},
		{http.MethodPost, routes.Folders, func(ctx requestContext) error {
			var payload commands.CreateFolderInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var folder composer.Folder
			payload.Result = &folder
			return reply(ctx, http.StatusCreated, &folder, api.CreateFolder(ctx.Context(), payload))
		}},
		{http.MethodPost, routes.FolderID, func(ctx requestContext) error {
			var payload commands.UpdateFolderInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var folder composer.Folder
			payload.ID = ctx.Param("id")
			payload.Result = &folder
			return reply(ctx, http.StatusOK, &folder, api.UpdateFolder(ctx.Context(), payload))
		}},
		{http.MethodDelete, routes.FolderID, func(ctx requestContext) error {
			var result composer.FolderDeletion
			err := api.DeleteFolder(ctx.Context(), commands.DeleteFolderInput{ID: ctx.Param("id"), Result: &result})
			return reply(ctx, http.StatusOK, map[string]any{"folder": result.Folder, "dashboards": result.Dashboards}, err)
		}},
		{http.MethodPost, routes.Dashboards, func(ctx requestContext) error {
			var payload commands.SaveDashboardInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var saved composer.Dashboard
			payload.Result = &saved
			status := http.StatusOK
			if payload.Name != "" {
				status = http.StatusCreated
			}
			return reply(ctx, status, &saved, api.SaveDashboard(ctx.Context(), payload))
		}},
		{http.MethodPost, routes.DashboardLoad, func(ctx requestContext) error {
			var view composer.View
			err := api.LoadDashboard(ctx.Context(), commands.LoadDashboardInput{ID: ctx.Param("id"), Result: &view})
			return reply(ctx, http.StatusOK, &view, err)
		}},
		{http.MethodPost, routes.DashboardID, func(ctx requestContext) error {
			var payload commands.RenameDashboardInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var renamed composer.Dashboard
			payload.ID = ctx.Param("id")
			payload.Result = &renamed
			return reply(ctx, http.StatusOK, &renamed, api.RenameDashboard(ctx.Context(), payload))
		}},
		{http.MethodDelete, routes.DashboardID, func(ctx requestContext) error {
			err := api.DeleteDashboard(ctx.Context(), commands.DeleteDashboardInput{ID: ctx.Param("id")})
			return reply(ctx, http.StatusOK, map[string]string{"status": "deleted"}, err)
		}},
		{http.MethodPost, routes.Widgets, func(ctx requestContext) error {
			var payload commands.AddWidgetInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var inst composer.WidgetInstance
			payload.Result = &inst
			return reply(ctx, http.StatusCreated, &inst, api.AddWidget(ctx.Context(), payload))
		}},
		{http.MethodPost, routes.WidgetID, func(ctx requestContext) error {
			var payload commands.UpdateWidgetInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var inst composer.WidgetInstance
			payload.InstanceID = ctx.Param("id")
			payload.Result = &inst
			return reply(ctx, http.StatusOK, &inst, api.UpdateWidget(ctx.Context(), payload))
		}},
		{http.MethodDelete, routes.WidgetID, func(ctx requestContext) error {
			id := ctx.Param("id")
			if id == "" {
				return respondError(ctx, http.StatusBadRequest, errors.New("widget id is required"))
			}
			err := api.RemoveWidget(ctx.Context(), commands.RemoveWidgetInput{InstanceID: id})
			return reply(ctx, http.StatusOK, map[string]string{"status": "removed"}, err)
		}},
		{http.MethodPost, routes.Layout, func(ctx requestContext) error {
			var payload commands.ChangeLayoutInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var widgets []composer.WidgetInstance
			payload.Result = &widgets
			err := api.ChangeLayout(ctx.Context(), payload)
			return reply(ctx, http.StatusOK, map[string]any{"widgets": widgets}, err)
		}},
		{http.MethodPost, routes.Theme, func(ctx requestContext) error {
			var payload commands.SetThemeInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var mode composer.ThemeMode
			payload.Result = &mode
			err := api.SetTheme(ctx.Context(), payload)
			return reply(ctx, http.StatusOK, map[string]any{"theme": &mode}, err)
		}},
		{http.MethodPost, routes.EditMode, func(ctx requestContext) error {
			var editable bool
			err := api.ToggleEditMode(ctx.Context(), commands.ToggleEditModeInput{Result: &editable})
			return reply(ctx, http.StatusOK, map[string]any{"editable": &editable}, err)
		}},
		{http.MethodPost, routes.View, func(ctx requestContext) error {
			var payload commands.ShowViewInput
			if err := bind(ctx, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var view composer.View
			payload.Result = &view
			return reply(ctx, http.StatusOK, &view, api.ShowView(ctx.Context(), payload))
		}},
	}
}

func registerWebSocket(r Mounter, hook *composer.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// bind decodes an optional JSON body.
func bind(ctx requestContext, v any) error {
	body := bytes.TrimSpace(ctx.Body())
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// reply writes payload, or the error with the status the HTTP API uses for it.
// payload is encoded after the command ran so result pointers are filled.
func reply(ctx requestContext, status int, payload any, err error) error {
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(status, payload)
}

func respondError(ctx requestContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/composer")
	set(&routes.Workspace, "/composer/_workspace")
	set(&routes.Panel, "/composer/_panel")
	set(&routes.Catalog, "/composer/catalog")
	set(&routes.Folders, "/composer/folders")
	set(&routes.FolderID, "/composer/folders/:id")
	set(&routes.Dashboards, "/composer/dashboards")
	set(&routes.DashboardID, "/composer/dashboards/:id")
	set(&routes.DashboardLoad, "/composer/dashboards/:id/load")
	set(&routes.Widgets, "/composer/widgets")
	set(&routes.WidgetID, "/composer/widgets/:id")
	set(&routes.Layout, "/composer/layout")
	set(&routes.Theme, "/composer/theme")
	set(&routes.EditMode, "/composer/edit-mode")
	set(&routes.View, "/composer/view")
	set(&routes.WebSocket, "/composer/ws")
	return routes
}
