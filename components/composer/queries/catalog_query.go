package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type catalogService interface {
	Entries() []composer.CatalogEntry
	Search(term string) []composer.CatalogEntry
}

// CatalogInput searches the widget library. An empty term lists everything.
type CatalogInput struct {
	Term string `json:"term,omitempty"`
}

// CatalogQuery lists or searches catalog entries.
type CatalogQuery struct {
	catalog catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(catalog catalogService) *CatalogQuery {
	return &CatalogQuery{catalog: catalog}
}

var _ gocommand.Querier[CatalogInput, []composer.CatalogEntry] = (*CatalogQuery)(nil)

func (q *CatalogQuery) Query(_ context.Context, in CatalogInput) ([]composer.CatalogEntry, error) {
	if q.catalog == nil {
		return nil, errors.New("catalog query requires catalog")
	}
	if in.Term == "" {
		return q.catalog.Entries(), nil
	}
	return q.catalog.Search(in.Term), nil
}
