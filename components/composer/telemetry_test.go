package composer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapTelemetryWritesStructuredEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	telemetry := NewZapTelemetry(zap.New(core))

	store, err := NewEntityStore(StoreOptions{Storage: NewMemoryStore(nil), Telemetry: telemetry})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	_, err = store.AddFolder(context.Background(), "Team", "")
	require.NoError(t, err)

	entries := logs.FilterMessage("composer.folder.created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "composer", entries[0].LoggerName)
	assert.Contains(t, entries[0].ContextMap(), "folder_id")
}

func TestZapTelemetryNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewZapTelemetry(nil).Record(context.Background(), "composer.test", map[string]any{"k": 1})
	})
}
