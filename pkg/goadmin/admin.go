package goadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-dashboard-composer/pkg/composer"
)

// MenuBuilder ensures composer entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures composer link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
	Color    string
	Parent   string
}

// Config wires a composer session and feature flags into an admin shell.
type Config struct {
	EnableComposer  bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Session         *composer.Session
	DefaultMenuItem MenuItem
	// FolderMenus adds one child entry per folder under DefaultMenuItem.
	FolderMenus bool
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed composer menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableComposer && cfg.Session == nil {
		return nil, errors.New("goadmin: composer session is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Dashboards"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "admin.composer"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "layout-grid"
	}
	return &Admin{cfg: cfg}, nil
}

// Composer exposes the configured session when enabled.
func (a *Admin) Composer() *composer.Session {
	if !a.cfg.EnableComposer {
		return nil
	}
	return a.cfg.Session
}

// Bootstrap seeds menu entries when composer support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableComposer || a.cfg.MenuBuilder == nil {
		return nil
	}
	root := a.cfg.DefaultMenuItem
	if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, root); err != nil {
		return err
	}
	if !a.cfg.FolderMenus {
		return nil
	}
	for idx, folder := range a.cfg.Session.Store().Folders() {
		item := MenuItem{
			Label:    folder.Name,
			Route:    fmt.Sprintf("%s.folder.%s", root.Route, folder.ID),
			Icon:     "folder",
			Position: idx,
			Color:    folder.Color,
			Parent:   root.Route,
		}
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			return fmt.Errorf("goadmin: folder %s: %w", folder.ID, err)
		}
	}
	return nil
}
