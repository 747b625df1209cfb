package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type dashboardService interface {
	LoadDashboard(ctx context.Context, id string) (composer.View, error)
	NewDashboard() composer.View
	Save(ctx context.Context) (composer.Dashboard, error)
	SaveAs(ctx context.Context, folderID, name string) (composer.Dashboard, error)
	RenameActive(ctx context.Context, name string) (composer.Dashboard, bool, error)
	RenameDashboard(ctx context.Context, id, name string) (composer.Dashboard, bool, error)
	DeleteDashboard(ctx context.Context, id string) (bool, error)
}

// LoadDashboardInput activates a stored dashboard. An empty ID starts a new,
// unsaved dashboard instead.
type LoadDashboardInput struct {
	ID     string         `json:"id"`
	Result *composer.View `json:"-"`
}

// LoadDashboardCommand switches the working set.
type LoadDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewLoadDashboardCommand builds the command.
func NewLoadDashboardCommand(service dashboardService, telemetry Telemetry) *LoadDashboardCommand {
	return &LoadDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadDashboardInput] = (*LoadDashboardCommand)(nil)

// Execute loads the dashboard into the session.
func (c *LoadDashboardCommand) Execute(ctx context.Context, msg LoadDashboardInput) error {
	if c.service == nil {
		return errors.New("load dashboard command requires service")
	}
	var view composer.View
	if id := strings.TrimSpace(msg.ID); id == "" {
		view = c.service.NewDashboard()
	} else {
		loaded, err := c.service.LoadDashboard(ctx, id)
		if err != nil {
			return err
		}
		view = loaded
	}
	if msg.Result != nil {
		*msg.Result = view
	}
	c.telemetry.Record(ctx, "composer.command.dashboard_loaded", map[string]any{
		"dashboard_id": msg.ID,
		"view":         string(view.Kind),
	})
	return nil
}

// SaveDashboardInput saves the working set. With a Name the working set is
// stored as a new dashboard in FolderID; otherwise the active dashboard is
// overwritten.
type SaveDashboardInput struct {
	FolderID string              `json:"folderId,omitempty"`
	Name     string              `json:"name,omitempty"`
	Result   *composer.Dashboard `json:"-"`
}

// SaveDashboardCommand persists the working set.
type SaveDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewSaveDashboardCommand builds the command.
func NewSaveDashboardCommand(service dashboardService, telemetry Telemetry) *SaveDashboardCommand {
	return &SaveDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveDashboardInput] = (*SaveDashboardCommand)(nil)

// Execute saves or saves-as depending on the input.
func (c *SaveDashboardCommand) Execute(ctx context.Context, msg SaveDashboardInput) error {
	if c.service == nil {
		return errors.New("save dashboard command requires service")
	}
	var (
		saved composer.Dashboard
		err   error
		mode  = "save"
	)
	if strings.TrimSpace(msg.Name) != "" {
		mode = "save_as"
		saved, err = c.service.SaveAs(ctx, msg.FolderID, msg.Name)
	} else {
		saved, err = c.service.Save(ctx)
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = saved
	}
	c.telemetry.Record(ctx, "composer.command.dashboard_saved", map[string]any{
		"dashboard_id": saved.ID,
		"mode":         mode,
		"widgets":      len(saved.WidgetInstances),
	})
	return nil
}

// RenameDashboardInput renames a dashboard. An empty ID targets the active one.
type RenameDashboardInput struct {
	ID     string              `json:"id,omitempty"`
	Name   string              `json:"name"`
	Result *composer.Dashboard `json:"-"`
}

// RenameDashboardCommand renames a dashboard.
type RenameDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewRenameDashboardCommand builds the command.
func NewRenameDashboardCommand(service dashboardService, telemetry Telemetry) *RenameDashboardCommand {
	return &RenameDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RenameDashboardInput] = (*RenameDashboardCommand)(nil)

// Execute applies the new name. Blank names leave the dashboard untouched.
func (c *RenameDashboardCommand) Execute(ctx context.Context, msg RenameDashboardInput) error {
	if c.service == nil {
		return errors.New("rename dashboard command requires service")
	}
	var (
		renamed composer.Dashboard
		ok      bool
		err     error
	)
	if msg.ID == "" {
		renamed, ok, err = c.service.RenameActive(ctx, msg.Name)
		if err == nil && !ok {
			return nil
		}
	} else {
		renamed, ok, err = c.service.RenameDashboard(ctx, msg.ID, msg.Name)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", composer.ErrDashboardNotFound, msg.ID)
	}
	if msg.Result != nil {
		*msg.Result = renamed
	}
	c.telemetry.Record(ctx, "composer.command.dashboard_renamed", map[string]any{"dashboard_id": renamed.ID})
	return nil
}

// DeleteDashboardInput removes a dashboard.
type DeleteDashboardInput struct {
	ID string `json:"id"`
}

// DeleteDashboardCommand removes a dashboard, clearing the working set when it
// was active.
type DeleteDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewDeleteDashboardCommand builds the command.
func NewDeleteDashboardCommand(service dashboardService, telemetry Telemetry) *DeleteDashboardCommand {
	return &DeleteDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteDashboardInput] = (*DeleteDashboardCommand)(nil)

// Execute deletes the dashboard.
func (c *DeleteDashboardCommand) Execute(ctx context.Context, msg DeleteDashboardInput) error {
	if c.service == nil {
		return errors.New("delete dashboard command requires service")
	}
	if msg.ID == "" {
		return errors.New("delete dashboard command requires dashboard id")
	}
	ok, err := c.service.DeleteDashboard(ctx, msg.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", composer.ErrDashboardNotFound, msg.ID)
	}
	c.telemetry.Record(ctx, "composer.command.dashboard_deleted", map[string]any{"dashboard_id": msg.ID})
	return nil
}
