package analytics

import (
	"context"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

// WidgetRef identifies one widget on the rendering surface.
type WidgetRef struct {
	WidgetOID    string `json:"widgetOid"`
	DashboardOID string `json:"dashboardOid"`
}

// ChartClient fetches the option tree a surface widget renders from.
type ChartClient interface {
	FetchChartOptions(ctx context.Context, ref WidgetRef) (composer.ChartOptions, error)
}

// CredentialVerifier checks that the configured credentials are accepted.
type CredentialVerifier interface {
	Verify(ctx context.Context) error
}

// Client is a convenience union for services that implement all analytics calls.
type Client interface {
	ChartClient
	CredentialVerifier
}
