package analytics

import (
	"context"
	"errors"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

type planRenderer interface {
	RenderPlan(plan composer.RenderPlan, tree composer.ChartOptions) (string, error)
}

// WidgetPreviewer fetches a widget's option tree from the surface and renders
// it through the plan's before-render hook.
type WidgetPreviewer struct {
	client   ChartClient
	renderer planRenderer
}

// NewWidgetPreviewer adapts an analytics client into a preview source.
func NewWidgetPreviewer(client ChartClient, renderer planRenderer) *WidgetPreviewer {
	return &WidgetPreviewer{client: client, renderer: renderer}
}

// Preview renders one plan. Plans without surface identifiers, such as raw
// embeds and custom renderers without a widget, cannot be previewed.
func (p *WidgetPreviewer) Preview(ctx context.Context, plan composer.RenderPlan) (string, error) {
	if p.client == nil || p.renderer == nil {
		return "", errors.New("analytics: previewer requires client and renderer")
	}
	tree, err := p.client.FetchChartOptions(ctx, WidgetRef{WidgetOID: plan.WidgetOID, DashboardOID: plan.DashboardOID})
	if err != nil {
		return "", err
	}
	return p.renderer.RenderPlan(plan, tree)
}
