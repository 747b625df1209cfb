package composer

import (
	"context"
	"errors"
)

// Storage keys used by the entity store and the theme service.
const (
	KeyFolders    = "folders"
	KeyDashboards = "dashboards"
	KeyThemeMode  = "themeMode"
)

var (
	ErrMissingStorage    = errors.New("composer: key/value storage not configured")
	ErrInvalidName       = errors.New("composer: name is required")
	ErrInvalidWidgets    = errors.New("composer: widget instances violate layout identity")
	ErrUnknownCatalogKey = errors.New("composer: unknown catalog key")
	ErrInstanceNotFound  = errors.New("composer: widget instance not found")
	ErrNoActiveDashboard = errors.New("composer: no active dashboard")
	ErrDashboardNotFound = errors.New("composer: dashboard not found")
	ErrFolderNotFound    = errors.New("composer: folder not found")
	ErrThemeClosed       = errors.New("composer: theme service closed")
	ErrUnknownTransform  = errors.New("composer: unknown pre-render transform")
	ErrInvalidTheme      = errors.New("composer: theme must be light or dark")
)

// KeyValueStore is the persistence contract the engine relies on. Values are
// JSON strings; the store offers no transactional guarantees.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ViewportNotifier is told when widgets need to re-measure their container.
type ViewportNotifier interface {
	ViewportChanged(ctx context.Context, event ViewEvent) error
}

// ThemeMode is the light/dark presentation mode.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Valid reports whether the mode is one of the supported values.
func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark
}

// OrDefault returns the mode, or fallback when the mode is unset or unknown.
func (m ThemeMode) OrDefault(fallback ThemeMode) ThemeMode {
	if m.Valid() {
		return m
	}
	return fallback
}

// Toggle flips between light and dark.
func (m ThemeMode) Toggle() ThemeMode {
	if m == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Folder groups dashboards in the side panel.
type Folder struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// FolderPatch carries a rename/recolor edit.
type FolderPatch struct {
	Name  string
	Color string
}

// Dashboard is a saved view. Dashboards with an IframeURL are hosted
// externally and never reach the grid.
type Dashboard struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	FolderID        string           `json:"folderId" yaml:"folder_id"`
	WidgetInstances []WidgetInstance `json:"widgetInstances" yaml:"widget_instances"`
	Theme           ThemeMode        `json:"theme,omitempty" yaml:"theme,omitempty"`
	IframeURL       string           `json:"iframeUrl,omitempty" yaml:"iframe_url,omitempty"`
}

// IsExternal reports whether the dashboard is an embedded external page.
func (d Dashboard) IsExternal() bool {
	return d.IframeURL != ""
}

// DashboardInput configures a new dashboard.
type DashboardInput struct {
	Name            string
	FolderID        string
	WidgetInstances []WidgetInstance
	Theme           ThemeMode
	IframeURL       string
}

// FolderDeletion reports the result of a cascading folder delete.
type FolderDeletion struct {
	Folder     Folder
	Dashboards []string
	Found      bool
}

// SeedData is the read-only built-in content merged with user data on load.
type SeedData struct {
	Folders            []Folder    `json:"folders" yaml:"folders"`
	Dashboards         []Dashboard `json:"dashboards" yaml:"dashboards"`
	DefaultDashboardID string      `json:"defaultDashboardId,omitempty" yaml:"default_dashboard_id,omitempty"`
}

// ViewEvent describes something transports may want to push to clients.
type ViewEvent struct {
	Reason     string    `json:"reason"`
	InstanceID string    `json:"instanceId,omitempty"`
	Layout     *GridItem `json:"layout,omitempty"`
	Theme      ThemeMode `json:"theme,omitempty"`
}

// View reasons emitted by the engine.
const (
	ViewReasonResize = "resize"
	ViewReasonTheme  = "theme"
)
