package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type widgetService interface {
	AddCatalogWidget(ctx context.Context, key string, override *composer.Size) (composer.WidgetInstance, error)
	AddEmbed(ctx context.Context, code string) (composer.WidgetInstance, error)
	AddStyledEmbed(ctx context.Context, styled composer.StyledWidget) (composer.WidgetInstance, error)
	UpdateEmbed(ctx context.Context, id, code string) (composer.WidgetInstance, error)
	UpdateStyledEmbed(ctx context.Context, id string, styled composer.StyledWidget) (composer.WidgetInstance, error)
	SetGridLineStyle(ctx context.Context, id string, style composer.GridLineStyle) (composer.WidgetInstance, error)
	Remove(ctx context.Context, id string) bool
}

type layoutService interface {
	ApplyLayoutChange(items []composer.GridItem) []composer.WidgetInstance
	ResizeStop(ctx context.Context, layout []composer.GridItem, oldItem, newItem composer.GridItem) []composer.WidgetInstance
}

// AddWidgetInput appends a widget to the working set. The catalog key picks
// the kind: the embed key needs EmbedCode, the styled embed key needs Styled.
type AddWidgetInput struct {
	Key       string                   `json:"key"`
	Size      *composer.Size           `json:"size,omitempty"`
	EmbedCode string                   `json:"embedCode,omitempty"`
	Styled    *composer.StyledWidget   `json:"styled,omitempty"`
	Result    *composer.WidgetInstance `json:"-"`
}

// AddWidgetCommand places a new widget at the bottom of the grid.
type AddWidgetCommand struct {
	service   widgetService
	telemetry Telemetry
}

// NewAddWidgetCommand builds the command.
func NewAddWidgetCommand(service widgetService, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute adds the widget.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add widget command requires service")
	}
	var (
		inst composer.WidgetInstance
		err  error
	)
	switch key := strings.TrimSpace(msg.Key); key {
	case composer.EmbedKey:
		inst, err = c.service.AddEmbed(ctx, msg.EmbedCode)
	case composer.StyledEmbedKey:
		if msg.Styled == nil {
			return fmt.Errorf("%w: styled embed requires styled payload", composer.ErrInvalidWidgets)
		}
		inst, err = c.service.AddStyledEmbed(ctx, *msg.Styled)
	case "":
		return errors.New("add widget command requires catalog key")
	default:
		inst, err = c.service.AddCatalogWidget(ctx, key, msg.Size)
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = inst
	}
	c.telemetry.Record(ctx, "composer.command.widget_added", map[string]any{
		"instance_id": inst.InstanceID,
		"kind":        string(inst.Kind),
	})
	return nil
}

// UpdateWidgetInput edits one widget. Exactly one of EmbedCode, Styled or
// GridLineStyle is expected.
type UpdateWidgetInput struct {
	InstanceID    string                   `json:"instanceId"`
	EmbedCode     string                   `json:"embedCode,omitempty"`
	Styled        *composer.StyledWidget   `json:"styled,omitempty"`
	GridLineStyle composer.GridLineStyle   `json:"gridLineStyle,omitempty"`
	Result        *composer.WidgetInstance `json:"-"`
}

// UpdateWidgetCommand edits an existing widget in place.
type UpdateWidgetCommand struct {
	service   widgetService
	telemetry Telemetry
}

// NewUpdateWidgetCommand builds the command.
func NewUpdateWidgetCommand(service widgetService, telemetry Telemetry) *UpdateWidgetCommand {
	return &UpdateWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateWidgetInput] = (*UpdateWidgetCommand)(nil)

// Execute applies the edit.
func (c *UpdateWidgetCommand) Execute(ctx context.Context, msg UpdateWidgetInput) error {
	if c.service == nil {
		return errors.New("update widget command requires service")
	}
	if msg.InstanceID == "" {
		return errors.New("update widget command requires instance id")
	}
	var (
		inst  composer.WidgetInstance
		err   error
		field string
	)
	switch {
	case msg.Styled != nil:
		field = "styled"
		inst, err = c.service.UpdateStyledEmbed(ctx, msg.InstanceID, *msg.Styled)
	case strings.TrimSpace(msg.EmbedCode) != "":
		field = "embed"
		inst, err = c.service.UpdateEmbed(ctx, msg.InstanceID, msg.EmbedCode)
	case msg.GridLineStyle != "":
		field = "grid_lines"
		inst, err = c.service.SetGridLineStyle(ctx, msg.InstanceID, msg.GridLineStyle)
	default:
		return fmt.Errorf("%w: nothing to update", composer.ErrInvalidWidgets)
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = inst
	}
	c.telemetry.Record(ctx, "composer.command.widget_updated", map[string]any{
		"instance_id": inst.InstanceID,
		"field":       field,
	})
	return nil
}

// RemoveWidgetInput identifies the widget instance to drop.
type RemoveWidgetInput struct {
	InstanceID string `json:"instanceId"`
}

// RemoveWidgetCommand drops a widget from the working set.
type RemoveWidgetCommand struct {
	service   widgetService
	telemetry Telemetry
}

// NewRemoveWidgetCommand builds the command.
func NewRemoveWidgetCommand(service widgetService, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveWidgetInput] = (*RemoveWidgetCommand)(nil)

// Execute removes the instance.
func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg RemoveWidgetInput) error {
	if c.service == nil {
		return errors.New("remove widget command requires service")
	}
	if msg.InstanceID == "" {
		return errors.New("remove widget command requires instance id")
	}
	if !c.service.Remove(ctx, msg.InstanceID) {
		return fmt.Errorf("%w: %s", composer.ErrInstanceNotFound, msg.InstanceID)
	}
	c.telemetry.Record(ctx, "composer.command.widget_removed", map[string]any{"instance_id": msg.InstanceID})
	return nil
}

// ChangeLayoutInput carries a full layout batch from the grid, or the final
// state of a resize gesture when Resized is set.
type ChangeLayoutInput struct {
	Layout  []composer.GridItem        `json:"layout"`
	OldItem *composer.GridItem         `json:"oldItem,omitempty"`
	Resized *composer.GridItem         `json:"resized,omitempty"`
	Result  *[]composer.WidgetInstance `json:"-"`
}

// ChangeLayoutCommand reconciles grid layout updates.
type ChangeLayoutCommand struct {
	service   layoutService
	telemetry Telemetry
}

// NewChangeLayoutCommand builds the command.
func NewChangeLayoutCommand(service layoutService, telemetry Telemetry) *ChangeLayoutCommand {
	return &ChangeLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ChangeLayoutInput] = (*ChangeLayoutCommand)(nil)

// Execute applies the batch or the resize.
func (c *ChangeLayoutCommand) Execute(ctx context.Context, msg ChangeLayoutInput) error {
	if c.service == nil {
		return errors.New("change layout command requires service")
	}
	var out []composer.WidgetInstance
	event := "composer.command.layout_changed"
	if msg.Resized != nil {
		var old composer.GridItem
		if msg.OldItem != nil {
			old = *msg.OldItem
		}
		out = c.service.ResizeStop(ctx, msg.Layout, old, *msg.Resized)
		event = "composer.command.widget_resized"
	} else {
		out = c.service.ApplyLayoutChange(msg.Layout)
	}
	if msg.Result != nil {
		*msg.Result = out
	}
	c.telemetry.Record(ctx, event, map[string]any{"widgets": len(out)})
	return nil
}
