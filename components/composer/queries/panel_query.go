package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type panelService interface {
	Panel(search string) composer.Panel
}

// PanelInput filters the side panel by dashboard or folder name.
type PanelInput struct {
	Search string `json:"search,omitempty"`
}

// PanelQuery builds the side-panel view model.
type PanelQuery struct {
	service panelService
}

// NewPanelQuery builds the query.
func NewPanelQuery(service panelService) *PanelQuery {
	return &PanelQuery{service: service}
}

var _ gocommand.Querier[PanelInput, composer.Panel] = (*PanelQuery)(nil)

// Query groups dashboards by folder.
func (q *PanelQuery) Query(_ context.Context, in PanelInput) (composer.Panel, error) {
	if q.service == nil {
		return composer.Panel{}, errors.New("panel query requires service")
	}
	return q.service.Panel(in.Search), nil
}

type dashboardReader interface {
	Dashboard(id string) (composer.Dashboard, bool)
}

// DashboardInput identifies a stored dashboard.
type DashboardInput struct {
	ID string `json:"id"`
}

// DashboardQuery reads one dashboard from the entity store.
type DashboardQuery struct {
	store dashboardReader
}

// NewDashboardQuery builds the query.
func NewDashboardQuery(store dashboardReader) *DashboardQuery {
	return &DashboardQuery{store: store}
}

var _ gocommand.Querier[DashboardInput, composer.Dashboard] = (*DashboardQuery)(nil)

// Query returns the dashboard or ErrDashboardNotFound.
func (q *DashboardQuery) Query(_ context.Context, in DashboardInput) (composer.Dashboard, error) {
	if q.store == nil {
		return composer.Dashboard{}, errors.New("dashboard query requires store")
	}
	d, ok := q.store.Dashboard(in.ID)
	if !ok {
		return composer.Dashboard{}, composer.ErrDashboardNotFound
	}
	return d, nil
}
