package commands

import (
	"context"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

// Telemetry is the engine's event sink. Commands record under
// "composer.command.*" so a single ZapTelemetry serves both layers.
type Telemetry = composer.Telemetry

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
