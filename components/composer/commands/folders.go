package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type folderService interface {
	AddFolder(ctx context.Context, name, color string) (composer.Folder, error)
	UpdateFolder(ctx context.Context, id string, patch composer.FolderPatch) (composer.Folder, bool, error)
	DeleteFolder(ctx context.Context, id string) (composer.FolderDeletion, error)
}

// CreateFolderInput names a new folder. Result receives the stored folder.
type CreateFolderInput struct {
	Name   string           `json:"name"`
	Color  string           `json:"color"`
	Result *composer.Folder `json:"-"`
}

// CreateFolderCommand adds a folder to the collection.
type CreateFolderCommand struct {
	service   folderService
	telemetry Telemetry
}

// NewCreateFolderCommand builds the command.
func NewCreateFolderCommand(service folderService, telemetry Telemetry) *CreateFolderCommand {
	return &CreateFolderCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateFolderInput] = (*CreateFolderCommand)(nil)

// Execute stores the folder.
func (c *CreateFolderCommand) Execute(ctx context.Context, msg CreateFolderInput) error {
	if c.service == nil {
		return errors.New("create folder command requires service")
	}
	folder, err := c.service.AddFolder(ctx, msg.Name, msg.Color)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = folder
	}
	c.telemetry.Record(ctx, "composer.command.folder_created", map[string]any{"folder_id": folder.ID})
	return nil
}

// UpdateFolderInput patches an existing folder.
type UpdateFolderInput struct {
	ID     string           `json:"id"`
	Name   string           `json:"name,omitempty"`
	Color  string           `json:"color,omitempty"`
	Result *composer.Folder `json:"-"`
}

// UpdateFolderCommand renames or recolors a folder.
type UpdateFolderCommand struct {
	service   folderService
	telemetry Telemetry
}

// NewUpdateFolderCommand builds the command.
func NewUpdateFolderCommand(service folderService, telemetry Telemetry) *UpdateFolderCommand {
	return &UpdateFolderCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateFolderInput] = (*UpdateFolderCommand)(nil)

// Execute applies the patch. Unknown folders fail with ErrFolderNotFound.
func (c *UpdateFolderCommand) Execute(ctx context.Context, msg UpdateFolderInput) error {
	if c.service == nil {
		return errors.New("update folder command requires service")
	}
	if msg.ID == "" {
		return errors.New("update folder command requires folder id")
	}
	folder, ok, err := c.service.UpdateFolder(ctx, msg.ID, composer.FolderPatch{Name: msg.Name, Color: msg.Color})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", composer.ErrFolderNotFound, msg.ID)
	}
	if msg.Result != nil {
		*msg.Result = folder
	}
	c.telemetry.Record(ctx, "composer.command.folder_updated", map[string]any{
		"folder_id": folder.ID,
		"forked":    folder.ID != msg.ID,
	})
	return nil
}

// DeleteFolderInput removes a folder and every dashboard filed under it.
type DeleteFolderInput struct {
	ID     string                   `json:"id"`
	Result *composer.FolderDeletion `json:"-"`
}

// DeleteFolderCommand cascades a folder removal.
type DeleteFolderCommand struct {
	service   folderService
	telemetry Telemetry
}

// NewDeleteFolderCommand builds the command.
func NewDeleteFolderCommand(service folderService, telemetry Telemetry) *DeleteFolderCommand {
	return &DeleteFolderCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteFolderInput] = (*DeleteFolderCommand)(nil)

// Execute removes the folder.
func (c *DeleteFolderCommand) Execute(ctx context.Context, msg DeleteFolderInput) error {
	if c.service == nil {
		return errors.New("delete folder command requires service")
	}
	if msg.ID == "" {
		return errors.New("delete folder command requires folder id")
	}
	result, err := c.service.DeleteFolder(ctx, msg.ID)
	if err != nil {
		return err
	}
	if !result.Found {
		return fmt.Errorf("%w: %s", composer.ErrFolderNotFound, msg.ID)
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	c.telemetry.Record(ctx, "composer.command.folder_deleted", map[string]any{
		"folder_id":  msg.ID,
		"dashboards": len(result.Dashboards),
	})
	return nil
}
