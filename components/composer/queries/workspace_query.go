package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type workspaceService interface {
	ActiveDashboardID() string
	Title() string
	View() composer.View
	Editable() bool
	CurrentTheme() composer.ThemeMode
	Layouts() map[string][]composer.GridItem
	RenderPlans() []composer.RenderPlan
}

// WorkspaceInput has no filters; the workspace is the session's working set.
type WorkspaceInput struct{}

// Workspace is a read-only snapshot of the session.
type Workspace struct {
	ActiveDashboardID string                         `json:"activeDashboardId,omitempty"`
	Title             string                         `json:"title"`
	View              composer.View                  `json:"view"`
	Editable          bool                           `json:"editable"`
	Theme             composer.ThemeMode             `json:"theme"`
	Layouts           map[string][]composer.GridItem `json:"layouts"`
	Widgets           []composer.RenderPlan          `json:"widgets"`
}

// WorkspaceQuery snapshots the working set with its render plans.
type WorkspaceQuery struct {
	service workspaceService
}

// NewWorkspaceQuery builds the query.
func NewWorkspaceQuery(service workspaceService) *WorkspaceQuery {
	return &WorkspaceQuery{service: service}
}

var _ gocommand.Querier[WorkspaceInput, Workspace] = (*WorkspaceQuery)(nil)

// Query captures the current session state.
func (q *WorkspaceQuery) Query(context.Context, WorkspaceInput) (Workspace, error) {
	if q.service == nil {
		return Workspace{}, errors.New("workspace query requires service")
	}
	return Workspace{
		ActiveDashboardID: q.service.ActiveDashboardID(),
		Title:             q.service.Title(),
		View:              q.service.View(),
		Editable:          q.service.Editable(),
		Theme:             q.service.CurrentTheme(),
		Layouts:           q.service.Layouts(),
		Widgets:           q.service.RenderPlans(),
	}, nil
}
