package analytics

import (
	"context"
	"fmt"
	"sync"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

// MockClient implements Client using in-memory fixtures. Unknown widgets get
// the fallback tree when one is set.
type MockClient struct {
	mu       sync.RWMutex
	trees    map[WidgetRef]composer.ChartOptions
	fallback composer.ChartOptions
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock analytics client answering every widget with
// fallback. Pass nil to make unknown widgets an error.
func NewMockClient(fallback composer.ChartOptions) *MockClient {
	return &MockClient{trees: map[WidgetRef]composer.ChartOptions{}, fallback: fallback}
}

// Set registers the tree returned for ref.
func (c *MockClient) Set(ref WidgetRef, tree composer.ChartOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[ref] = tree.Clone()
}

func (c *MockClient) Verify(context.Context) error { return nil }

// FetchChartOptions returns a copy of the configured tree.
func (c *MockClient) FetchChartOptions(_ context.Context, ref WidgetRef) (composer.ChartOptions, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if tree, ok := c.trees[ref]; ok {
		return tree.Clone(), nil
	}
	if c.fallback != nil {
		return c.fallback.Clone(), nil
	}
	return nil, fmt.Errorf("analytics: no fixture for widget %s", ref.WidgetOID)
}

// SampleChartOptions is a quarterly spend chart with stacked columns on the
// primary axis and a patient count line on the secondary axis.
func SampleChartOptions() composer.ChartOptions {
	return composer.ChartOptions{
		"title": map[string]any{"text": "LTD trial spend"},
		"xAxis": map[string]any{"categories": []any{"Q1", "Q2", "Q3", "Q4"}},
		"yAxis": []any{
			map[string]any{"title": map[string]any{"text": "Spend"}},
			map[string]any{"title": map[string]any{"text": "Patients"}, "opposite": true},
		},
		"plotOptions": map[string]any{"column": map[string]any{"stacking": "normal"}},
		"legend":      map[string]any{"enabled": true},
		"series": []any{
			map[string]any{"name": "OCCs", "type": "column", "data": []any{120, 180, 140, 210}},
			map[string]any{"name": "Direct Fees", "type": "column", "data": []any{-40, 60, -25, 80}},
			map[string]any{"name": "Patient count", "type": "line", "yAxis": 1, "data": []any{35, 52, 61, 70}},
		},
	}
}
