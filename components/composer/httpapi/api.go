package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
	"github.com/goliatone/go-dashboard-composer/components/composer/commands"
	"github.com/goliatone/go-dashboard-composer/components/composer/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	API Executor
}

// Routes mounts every handler on a ServeMux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /workspace", h.HandleWorkspace)
	mux.HandleFunc("GET /panel", h.HandlePanel)
	mux.HandleFunc("GET /catalog", h.HandleCatalog)
	mux.HandleFunc("POST /folders", h.HandleCreateFolder)
	mux.HandleFunc("PATCH /folders/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleUpdateFolder(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /folders/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteFolder(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /dashboards", h.HandleSaveDashboard)
	mux.HandleFunc("POST /dashboards/{id}/load", func(w http.ResponseWriter, r *http.Request) {
		h.HandleLoadDashboard(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("PATCH /dashboards/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRenameDashboard(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /dashboards/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteDashboard(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /widgets", h.HandleAddWidget)
	mux.HandleFunc("PATCH /widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleUpdateWidget(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRemoveWidget(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /layout", h.HandleLayout)
	mux.HandleFunc("POST /theme", h.HandleTheme)
	mux.HandleFunc("POST /edit-mode", h.HandleEditMode)
	mux.HandleFunc("POST /view", h.HandleView)
	return mux
}

func (h *Handlers) HandleWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.API.Workspace(r.Context(), queries.WorkspaceInput{})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handlers) HandlePanel(w http.ResponseWriter, r *http.Request) {
	panel, err := h.API.Panel(r.Context(), queries.PanelInput{Search: r.URL.Query().Get("search")})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.API.Catalog(r.Context(), queries.CatalogInput{Term: r.URL.Query().Get("q")})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handlers) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var payload commands.CreateFolderInput
	if !decode(w, r, &payload) {
		return
	}
	var folder composer.Folder
	payload.Result = &folder
	if err := h.API.CreateFolder(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

func (h *Handlers) HandleUpdateFolder(w http.ResponseWriter, r *http.Request, folderID string) {
	var payload commands.UpdateFolderInput
	if !decode(w, r, &payload) {
		return
	}
	var folder composer.Folder
	payload.ID = folderID
	payload.Result = &folder
	if err := h.API.UpdateFolder(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (h *Handlers) HandleDeleteFolder(w http.ResponseWriter, r *http.Request, folderID string) {
	var result composer.FolderDeletion
	if err := h.API.DeleteFolder(r.Context(), commands.DeleteFolderInput{ID: folderID, Result: &result}); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folder": result.Folder, "dashboards": result.Dashboards})
}

func (h *Handlers) HandleLoadDashboard(w http.ResponseWriter, r *http.Request, dashboardID string) {
	var view composer.View
	if err := h.API.LoadDashboard(r.Context(), commands.LoadDashboardInput{ID: dashboardID, Result: &view}); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSaveDashboard saves the working set. A body with a name saves as a
// new dashboard and answers 201; an empty body overwrites the active one.
func (h *Handlers) HandleSaveDashboard(w http.ResponseWriter, r *http.Request) {
	var payload commands.SaveDashboardInput
	if !decode(w, r, &payload) {
		return
	}
	var saved composer.Dashboard
	payload.Result = &saved
	if err := h.API.SaveDashboard(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	status := http.StatusOK
	if payload.Name != "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (h *Handlers) HandleRenameDashboard(w http.ResponseWriter, r *http.Request, dashboardID string) {
	var payload commands.RenameDashboardInput
	if !decode(w, r, &payload) {
		return
	}
	var renamed composer.Dashboard
	payload.ID = dashboardID
	payload.Result = &renamed
	if err := h.API.RenameDashboard(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

func (h *Handlers) HandleDeleteDashboard(w http.ResponseWriter, r *http.Request, dashboardID string) {
	if err := h.API.DeleteDashboard(r.Context(), commands.DeleteDashboardInput{ID: dashboardID}); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.AddWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	var inst composer.WidgetInstance
	payload.Result = &inst
	if err := h.API.AddWidget(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (h *Handlers) HandleUpdateWidget(w http.ResponseWriter, r *http.Request, instanceID string) {
	var payload commands.UpdateWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	var inst composer.WidgetInstance
	payload.InstanceID = instanceID
	payload.Result = &inst
	if err := h.API.UpdateWidget(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, instanceID string) {
	if err := h.API.RemoveWidget(r.Context(), commands.RemoveWidgetInput{InstanceID: instanceID}); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	var payload commands.ChangeLayoutInput
	if !decode(w, r, &payload) {
		return
	}
	var widgets []composer.WidgetInstance
	payload.Result = &widgets
	if err := h.API.ChangeLayout(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, widgets)
}

func (h *Handlers) HandleTheme(w http.ResponseWriter, r *http.Request) {
	var payload commands.SetThemeInput
	if !decode(w, r, &payload) {
		return
	}
	var mode composer.ThemeMode
	payload.Result = &mode
	if err := h.API.SetTheme(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(mode)})
}

func (h *Handlers) HandleEditMode(w http.ResponseWriter, r *http.Request) {
	var editable bool
	if err := h.API.ToggleEditMode(r.Context(), commands.ToggleEditModeInput{Result: &editable}); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"editable": editable})
}

func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	var payload commands.ShowViewInput
	if !decode(w, r, &payload) {
		return
	}
	var view composer.View
	payload.Result = &view
	if err := h.API.ShowView(r.Context(), payload); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
