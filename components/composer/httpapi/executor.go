package httpapi

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
	"github.com/goliatone/go-dashboard-composer/components/composer/commands"
	"github.com/goliatone/go-dashboard-composer/components/composer/queries"
)

// Executor is the transport-agnostic facade over the composer commands and
// queries. Command results are delivered through the inputs' Result fields.
type Executor interface {
	CreateFolder(ctx context.Context, in commands.CreateFolderInput) error
	UpdateFolder(ctx context.Context, in commands.UpdateFolderInput) error
	DeleteFolder(ctx context.Context, in commands.DeleteFolderInput) error
	LoadDashboard(ctx context.Context, in commands.LoadDashboardInput) error
	SaveDashboard(ctx context.Context, in commands.SaveDashboardInput) error
	RenameDashboard(ctx context.Context, in commands.RenameDashboardInput) error
	DeleteDashboard(ctx context.Context, in commands.DeleteDashboardInput) error
	AddWidget(ctx context.Context, in commands.AddWidgetInput) error
	UpdateWidget(ctx context.Context, in commands.UpdateWidgetInput) error
	RemoveWidget(ctx context.Context, in commands.RemoveWidgetInput) error
	ChangeLayout(ctx context.Context, in commands.ChangeLayoutInput) error
	SetTheme(ctx context.Context, in commands.SetThemeInput) error
	ToggleEditMode(ctx context.Context, in commands.ToggleEditModeInput) error
	ShowView(ctx context.Context, in commands.ShowViewInput) error
	Panel(ctx context.Context, in queries.PanelInput) (composer.Panel, error)
	Workspace(ctx context.Context, in queries.WorkspaceInput) (queries.Workspace, error)
	Catalog(ctx context.Context, in queries.CatalogInput) ([]composer.CatalogEntry, error)
}

// Bus routes Executor calls to individual commanders and queriers so each can
// be swapped or decorated on its own.
type Bus struct {
	FolderCreate    gocommand.Commander[commands.CreateFolderInput]
	FolderUpdate    gocommand.Commander[commands.UpdateFolderInput]
	FolderDelete    gocommand.Commander[commands.DeleteFolderInput]
	DashboardLoad   gocommand.Commander[commands.LoadDashboardInput]
	DashboardSave   gocommand.Commander[commands.SaveDashboardInput]
	DashboardRename gocommand.Commander[commands.RenameDashboardInput]
	DashboardDelete gocommand.Commander[commands.DeleteDashboardInput]
	WidgetAdd       gocommand.Commander[commands.AddWidgetInput]
	WidgetUpdate    gocommand.Commander[commands.UpdateWidgetInput]
	WidgetRemove    gocommand.Commander[commands.RemoveWidgetInput]
	LayoutChange    gocommand.Commander[commands.ChangeLayoutInput]
	ThemeSet        gocommand.Commander[commands.SetThemeInput]
	EditMode        gocommand.Commander[commands.ToggleEditModeInput]
	ViewShow        gocommand.Commander[commands.ShowViewInput]
	PanelQuery      gocommand.Querier[queries.PanelInput, composer.Panel]
	WorkspaceQuery  gocommand.Querier[queries.WorkspaceInput, queries.Workspace]
	CatalogQuery    gocommand.Querier[queries.CatalogInput, []composer.CatalogEntry]
}

var _ Executor = (*Bus)(nil)

// NewSessionBus wires every command and query against one session.
func NewSessionBus(session *composer.Session, telemetry commands.Telemetry) *Bus {
	grid := session.Grid()
	return &Bus{
		FolderCreate:    commands.NewCreateFolderCommand(session, telemetry),
		FolderUpdate:    commands.NewUpdateFolderCommand(session, telemetry),
		FolderDelete:    commands.NewDeleteFolderCommand(session, telemetry),
		DashboardLoad:   commands.NewLoadDashboardCommand(session, telemetry),
		DashboardSave:   commands.NewSaveDashboardCommand(session, telemetry),
		DashboardRename: commands.NewRenameDashboardCommand(session, telemetry),
		DashboardDelete: commands.NewDeleteDashboardCommand(session, telemetry),
		WidgetAdd:       commands.NewAddWidgetCommand(grid, telemetry),
		WidgetUpdate:    commands.NewUpdateWidgetCommand(grid, telemetry),
		WidgetRemove:    commands.NewRemoveWidgetCommand(grid, telemetry),
		LayoutChange:    commands.NewChangeLayoutCommand(grid, telemetry),
		ThemeSet:        commands.NewSetThemeCommand(session.Theme(), telemetry),
		EditMode:        commands.NewToggleEditModeCommand(session, telemetry),
		ViewShow:        commands.NewShowViewCommand(session, telemetry),
		PanelQuery:      queries.NewPanelQuery(session),
		WorkspaceQuery:  queries.NewWorkspaceQuery(session),
		CatalogQuery:    queries.NewCatalogQuery(session.Catalog()),
	}
}

func (b *Bus) CreateFolder(ctx context.Context, in commands.CreateFolderInput) error {
	return execute(ctx, b.FolderCreate, in)
}

func (b *Bus) UpdateFolder(ctx context.Context, in commands.UpdateFolderInput) error {
	return execute(ctx, b.FolderUpdate, in)
}

func (b *Bus) DeleteFolder(ctx context.Context, in commands.DeleteFolderInput) error {
	return execute(ctx, b.FolderDelete, in)
}

func (b *Bus) LoadDashboard(ctx context.Context, in commands.LoadDashboardInput) error {
	return execute(ctx, b.DashboardLoad, in)
}

func (b *Bus) SaveDashboard(ctx context.Context, in commands.SaveDashboardInput) error {
	return execute(ctx, b.DashboardSave, in)
}

func (b *Bus) RenameDashboard(ctx context.Context, in commands.RenameDashboardInput) error {
	return execute(ctx, b.DashboardRename, in)
}

func (b *Bus) DeleteDashboard(ctx context.Context, in commands.DeleteDashboardInput) error {
	return execute(ctx, b.DashboardDelete, in)
}

func (b *Bus) AddWidget(ctx context.Context, in commands.AddWidgetInput) error {
	return execute(ctx, b.WidgetAdd, in)
}

func (b *Bus) UpdateWidget(ctx context.Context, in commands.UpdateWidgetInput) error {
	return execute(ctx, b.WidgetUpdate, in)
}

func (b *Bus) RemoveWidget(ctx context.Context, in commands.RemoveWidgetInput) error {
	return execute(ctx, b.WidgetRemove, in)
}

func (b *Bus) ChangeLayout(ctx context.Context, in commands.ChangeLayoutInput) error {
	return execute(ctx, b.LayoutChange, in)
}

func (b *Bus) SetTheme(ctx context.Context, in commands.SetThemeInput) error {
	return execute(ctx, b.ThemeSet, in)
}

func (b *Bus) ToggleEditMode(ctx context.Context, in commands.ToggleEditModeInput) error {
	return execute(ctx, b.EditMode, in)
}

func (b *Bus) ShowView(ctx context.Context, in commands.ShowViewInput) error {
	return execute(ctx, b.ViewShow, in)
}

func (b *Bus) Panel(ctx context.Context, in queries.PanelInput) (composer.Panel, error) {
	return query(ctx, b.PanelQuery, in)
}

func (b *Bus) Workspace(ctx context.Context, in queries.WorkspaceInput) (queries.Workspace, error) {
	return query(ctx, b.WorkspaceQuery, in)
}

func (b *Bus) Catalog(ctx context.Context, in queries.CatalogInput) ([]composer.CatalogEntry, error) {
	return query(ctx, b.CatalogQuery, in)
}

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], in T) error {
	if cmd == nil {
		return ErrNotConfigured
	}
	return cmd.Execute(ctx, in)
}

func query[T, R any](ctx context.Context, q gocommand.Querier[T, R], in T) (R, error) {
	if q == nil {
		var zero R
		return zero, ErrNotConfigured
	}
	return q.Query(ctx, in)
}
