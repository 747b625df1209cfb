package composer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ViewEvent
	err    error
}

func (n *recordingNotifier) ViewportChanged(_ context.Context, event ViewEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) snapshot() []ViewEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ViewEvent(nil), n.events...)
}

func assertSymmetric(t *testing.T, instances []WidgetInstance) {
	t.Helper()
	seen := map[string]bool{}
	for _, inst := range instances {
		assert.Equal(t, inst.InstanceID, inst.Layout.I)
		assert.False(t, seen[inst.InstanceID], "duplicate instance %s", inst.InstanceID)
		seen[inst.InstanceID] = true
	}
}

func TestGridAddThenRemove(t *testing.T) {
	ctx := context.Background()
	grid, err := NewGrid(GridOptions{}, nil)
	require.NoError(t, err)

	inst, err := grid.AddCatalogWidget(ctx, "kpi0", nil)
	require.NoError(t, err)
	require.Equal(t, 1, grid.Len())
	assert.Equal(t, 3, inst.Layout.W)
	assert.Equal(t, 3, inst.Layout.H)
	assert.Equal(t, 0, inst.Layout.X)
	assert.Equal(t, PlaceAtBottom, inst.Layout.Y)
	assert.Equal(t, inst.InstanceID, inst.Layout.I)
	assert.Contains(t, inst.InstanceID, "kpi0-")

	assert.True(t, grid.Remove(ctx, inst.InstanceID))
	assert.Empty(t, grid.Instances())
	assert.False(t, grid.Remove(ctx, inst.InstanceID))
}

func TestGridPlacementStepsByDefaultWidth(t *testing.T) {
	ctx := context.Background()
	grid, err := NewGrid(GridOptions{}, nil)
	require.NoError(t, err)

	var xs []int
	for i := 0; i < 5; i++ {
		inst, err := grid.AddCatalogWidget(ctx, "kpi2", nil)
		require.NoError(t, err)
		xs = append(xs, inst.Layout.X)
	}
	assert.Equal(t, []int{0, 3, 6, 9, 0}, xs)
}

func TestGridAddUnknownKey(t *testing.T) {
	ctx := context.Background()
	grid, err := NewGrid(GridOptions{}, nil)
	require.NoError(t, err)

	_, err = grid.AddCatalogWidget(ctx, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownCatalogKey)

	inst, err := grid.AddCatalogWidget(ctx, "nope", &Size{W: 4, H: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, inst.Layout.W)

	_, err = grid.AddCatalogWidget(ctx, EmbedKey, nil)
	assert.ErrorIs(t, err, ErrUnknownCatalogKey)
}

func TestGridResizeOnlyTouchesTarget(t *testing.T) {
	notifier := &recordingNotifier{}
	a := catalogInstance("A", "kpi0", 0, 0, 3, 3)
	b := catalogInstance("B", "kpi1", 3, 0, 3, 3)
	grid, err := NewGrid(GridOptions{Notifier: notifier, ResizeSettle: time.Millisecond}, []WidgetInstance{a, b})
	require.NoError(t, err)

	out := grid.ResizeStop(context.Background(), nil, a.Layout, GridItem{I: "A", X: 0, Y: 0, W: 6, H: 3})
	require.Len(t, out, 2)
	assert.Equal(t, GridItem{I: "A", X: 0, Y: 0, W: 6, H: 3}, out[0].Layout)
	assert.Equal(t, b.Layout, out[1].Layout)

	grid.WaitSettled()
	events := notifier.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, ViewReasonResize, events[0].Reason)
	assert.Equal(t, "A", events[0].InstanceID)
}

func TestGridResizeNotifiesAfterSettle(t *testing.T) {
	notifier := &recordingNotifier{}
	grid, err := NewGrid(GridOptions{Notifier: notifier, ResizeSettle: 50 * time.Millisecond}, []WidgetInstance{catalogInstance("A", "kpi0", 0, 0, 3, 3)})
	require.NoError(t, err)

	grid.ResizeStop(context.Background(), nil, GridItem{}, GridItem{I: "A", W: 4, H: 3})
	grid.ResizeStop(context.Background(), nil, GridItem{}, GridItem{I: "A", W: 5, H: 3})
	assert.Empty(t, notifier.snapshot())

	grid.WaitSettled()
	assert.Len(t, notifier.snapshot(), 2)
}

func TestGridResizeNotifyFailureIsRecorded(t *testing.T) {
	telemetry := &recordingTelemetry{}
	notifier := &recordingNotifier{err: errors.New("gone")}
	grid, err := NewGrid(GridOptions{Notifier: notifier, ResizeSettle: time.Millisecond, Telemetry: telemetry}, []WidgetInstance{catalogInstance("A", "kpi0", 0, 0, 3, 3)})
	require.NoError(t, err)

	grid.ResizeStop(context.Background(), nil, GridItem{}, GridItem{I: "A", W: 4, H: 3})
	grid.WaitSettled()
	assert.Contains(t, telemetry.names(), "composer.grid.notify_failed")
}

func TestGridLayoutChangeDropsStaleItems(t *testing.T) {
	grid, err := NewGrid(GridOptions{}, []WidgetInstance{
		catalogInstance("A", "kpi0", 0, 0, 3, 3),
		catalogInstance("B", "kpi1", 3, 0, 3, 3),
		catalogInstance("C", "kpi2", 6, 0, 3, 3),
	})
	require.NoError(t, err)

	out := grid.ApplyLayoutChange([]GridItem{
		{I: "C", X: 0, Y: 0, W: 3, H: 3},
		{I: "ghost", X: 3, Y: 0, W: 3, H: 3},
		{I: "A", X: 9, Y: 0, W: 3, H: 3, Static: true},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].InstanceID)
	assert.Equal(t, 9, out[0].Layout.X)
	assert.False(t, out[0].Layout.Static)
	assert.Equal(t, "C", out[1].InstanceID)
	assert.Equal(t, 0, out[1].Layout.X)
	assert.Equal(t, 2, grid.Len())
}

func TestGridSymmetryAcrossOperations(t *testing.T) {
	ctx := context.Background()
	grid, err := NewGrid(GridOptions{ResizeSettle: time.Millisecond}, nil)
	require.NoError(t, err)

	a, err := grid.AddCatalogWidget(ctx, "chart1", nil)
	require.NoError(t, err)
	_, err = grid.AddEmbed(ctx, "https://example.com/embed")
	require.NoError(t, err)
	styled, err := grid.AddStyledEmbed(ctx, StyledWidget{WidgetOID: "w", DashboardOID: "d", Style: DefaultStyleConfig()})
	require.NoError(t, err)
	_, err = grid.AddCatalogWidget(ctx, "chart1", nil)
	require.NoError(t, err)
	assertSymmetric(t, grid.Instances())

	grid.ResizeStop(ctx, nil, a.Layout, GridItem{I: a.InstanceID, W: 12, H: 4})
	grid.Remove(ctx, styled.InstanceID)
	layouts := grid.Layouts(true)["lg"]
	grid.ApplyLayoutChange(layouts[:2])
	grid.WaitSettled()

	assert.Equal(t, 2, grid.Len())
	assertSymmetric(t, grid.Instances())
}

func TestGridLayoutsStaticOutsideEditMode(t *testing.T) {
	grid, err := NewGrid(GridOptions{}, []WidgetInstance{catalogInstance("A", "kpi0", 0, 0, 3, 3)})
	require.NoError(t, err)

	assert.True(t, grid.Layouts(false)["lg"][0].Static)
	assert.False(t, grid.Layouts(true)["lg"][0].Static)
	inst, ok := grid.Instance("A")
	require.True(t, ok)
	assert.False(t, inst.Layout.Static)
}

func TestGridPixelSize(t *testing.T) {
	grid, err := NewGrid(GridOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, Size{W: 6, H: 4}, grid.PixelSize(600, 400))
	assert.Equal(t, Size{W: 1, H: 1}, grid.PixelSize(0, 0))
	assert.Equal(t, Size{W: 12, H: 1}, grid.PixelSize(5000, 10))
}

func TestGridStyledEmbedSizing(t *testing.T) {
	ctx := context.Background()
	grid, err := NewGrid(GridOptions{}, nil)
	require.NoError(t, err)

	style := DefaultStyleConfig()
	style.Width, style.Height = 300, 200
	inst, err := grid.AddStyledEmbed(ctx, StyledWidget{WidgetOID: "w", DashboardOID: "d", Style: style})
	require.NoError(t, err)
	assert.Equal(t, KindStyledEmbed, inst.Kind)
	assert.Equal(t, 3, inst.Layout.W)
	assert.Equal(t, 2, inst.Layout.H)

	_, err = grid.AddStyledEmbed(ctx, StyledWidget{WidgetOID: "w", Style: style})
	assert.ErrorIs(t, err, ErrInvalidWidgets)

	bad := DefaultStyleConfig()
	bad.GridLineStyle = "zigzag"
	_, err = grid.AddStyledEmbed(ctx, StyledWidget{WidgetOID: "w", DashboardOID: "d", Style: bad})
	assert.Error(t, err)
}

func TestGridUpdateEmbedConvertsKind(t *testing.T) {
	ctx := context.Background()
	grid, err := NewGrid(GridOptions{}, []WidgetInstance{catalogInstance("A", "chart1", 0, 0, 6, 8)})
	require.NoError(t, err)

	inst, err := grid.UpdateEmbed(ctx, "A", "<iframe src=x></iframe>")
	require.NoError(t, err)
	assert.Equal(t, KindEmbed, inst.Kind)
	assert.Nil(t, inst.Catalog)
	assert.Equal(t, GridItem{I: "A", X: 0, Y: 0, W: 6, H: 8}, inst.Layout)

	style := DefaultStyleConfig()
	inst, err = grid.UpdateStyledEmbed(ctx, "A", StyledWidget{WidgetOID: "w", DashboardOID: "d", Style: style})
	require.NoError(t, err)
	assert.Equal(t, KindStyledEmbed, inst.Kind)
	assert.Nil(t, inst.Embed)
	assert.Equal(t, 6, inst.Layout.W)

	_, err = grid.UpdateEmbed(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestGridSetGridLineStyle(t *testing.T) {
	ctx := context.Background()
	embed := WidgetInstance{InstanceID: "E", Kind: KindEmbed, CatalogKey: EmbedKey, Layout: GridItem{I: "E"}, Embed: &EmbedWidget{Code: "x"}}
	grid, err := NewGrid(GridOptions{}, []WidgetInstance{catalogInstance("A", "chart1", 0, 0, 6, 8), embed})
	require.NoError(t, err)

	inst, err := grid.SetGridLineStyle(ctx, "A", GridLinesDots)
	require.NoError(t, err)
	assert.Equal(t, GridLinesDots, inst.GridLineStyle())

	_, err = grid.SetGridLineStyle(ctx, "E", GridLinesDots)
	assert.ErrorIs(t, err, ErrInvalidWidgets)
	_, err = grid.SetGridLineStyle(ctx, "A", "wavy")
	assert.ErrorIs(t, err, ErrInvalidWidgets)
}

func TestGridRejectsBrokenWorkingSet(t *testing.T) {
	_, err := NewGrid(GridOptions{}, []WidgetInstance{catalogInstance("A", "kpi0", 0, 0, 3, 3), catalogInstance("A", "kpi0", 0, 0, 3, 3)})
	assert.ErrorIs(t, err, ErrInvalidWidgets)
}
