package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type themeService interface {
	SetTheme(ctx context.Context, mode composer.ThemeMode) error
	Toggle(ctx context.Context) (composer.ThemeMode, error)
}

// SetThemeInput picks a mode. An empty Theme toggles the current one.
type SetThemeInput struct {
	Theme  composer.ThemeMode  `json:"theme,omitempty"`
	Result *composer.ThemeMode `json:"-"`
}

// SetThemeCommand changes the global theme.
type SetThemeCommand struct {
	service   themeService
	telemetry Telemetry
}

// NewSetThemeCommand builds the command.
func NewSetThemeCommand(service themeService, telemetry Telemetry) *SetThemeCommand {
	return &SetThemeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetThemeInput] = (*SetThemeCommand)(nil)

// Execute sets or toggles the theme.
func (c *SetThemeCommand) Execute(ctx context.Context, msg SetThemeInput) error {
	if c.service == nil {
		return errors.New("theme command requires service")
	}
	mode := msg.Theme
	if mode == "" {
		next, err := c.service.Toggle(ctx)
		if err != nil {
			return err
		}
		mode = next
	} else if err := c.service.SetTheme(ctx, mode); err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = mode
	}
	c.telemetry.Record(ctx, "composer.command.theme_set", map[string]any{"theme": string(mode)})
	return nil
}

type editModeService interface {
	ToggleEditMode() bool
}

// ToggleEditModeInput flips edit mode and reports the new state.
type ToggleEditModeInput struct {
	Result *bool `json:"-"`
}

// ToggleEditModeCommand switches between viewing and editing the grid.
type ToggleEditModeCommand struct {
	service   editModeService
	telemetry Telemetry
}

// NewToggleEditModeCommand builds the command.
func NewToggleEditModeCommand(service editModeService, telemetry Telemetry) *ToggleEditModeCommand {
	return &ToggleEditModeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleEditModeInput] = (*ToggleEditModeCommand)(nil)

func (c *ToggleEditModeCommand) Execute(ctx context.Context, msg ToggleEditModeInput) error {
	if c.service == nil {
		return errors.New("edit mode command requires service")
	}
	editable := c.service.ToggleEditMode()
	if msg.Result != nil {
		*msg.Result = editable
	}
	c.telemetry.Record(ctx, "composer.command.edit_mode", map[string]any{"editable": editable})
	return nil
}

type viewService interface {
	ShowExternal(url, page string) composer.View
	ShowDashboard() composer.View
}

// ShowViewInput switches the content area. An empty URL returns to the grid.
type ShowViewInput struct {
	URL    string         `json:"url,omitempty"`
	Page   string         `json:"page,omitempty"`
	Result *composer.View `json:"-"`
}

// ShowViewCommand toggles between the grid and an external page.
type ShowViewCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewShowViewCommand builds the command.
func NewShowViewCommand(service viewService, telemetry Telemetry) *ShowViewCommand {
	return &ShowViewCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ShowViewInput] = (*ShowViewCommand)(nil)

func (c *ShowViewCommand) Execute(ctx context.Context, msg ShowViewInput) error {
	if c.service == nil {
		return errors.New("show view command requires service")
	}
	var view composer.View
	if msg.URL == "" {
		view = c.service.ShowDashboard()
	} else {
		view = c.service.ShowExternal(msg.URL, msg.Page)
	}
	if msg.Result != nil {
		*msg.Result = view
	}
	c.telemetry.Record(ctx, "composer.command.view_changed", map[string]any{"view": string(view.Kind)})
	return nil
}
