package composer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, notifier ViewportNotifier) (*Session, *MemoryStore) {
	t.Helper()
	ctx := context.Background()
	storage := NewMemoryStore(nil)
	store, err := NewEntityStore(StoreOptions{Storage: storage, Seed: DefaultSeed()})
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))
	theme, err := NewThemeService(ctx, storage, ThemeDark)
	require.NoError(t, err)
	session, err := NewSession(SessionOptions{
		Store: store,
		Theme: theme,
		Grid:  GridOptions{Notifier: notifier, ResizeSettle: time.Millisecond},
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session, storage
}

func TestNewSessionRequiresCollaborators(t *testing.T) {
	_, err := NewSession(SessionOptions{})
	assert.Error(t, err)
}

func TestSessionStartLoadsDefaultDashboard(t *testing.T) {
	session, _ := newTestSession(t, nil)
	require.NoError(t, session.Start(context.Background()))

	assert.Equal(t, "d-demo-dark", session.ActiveDashboardID())
	assert.Equal(t, "Trial overview (dark)", session.Title())
	assert.Equal(t, 7, session.Grid().Len())
	assert.Equal(t, ViewGrid, session.View().Kind)
}

func TestSessionLoadAppliesDashboardTheme(t *testing.T) {
	notifier := &recordingNotifier{}
	session, storage := newTestSession(t, notifier)
	ctx := context.Background()

	_, err := session.LoadDashboard(ctx, "d-demo-light")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, session.CurrentTheme())
	value, _, _ := storage.Get(ctx, KeyThemeMode)
	assert.Equal(t, "light", value)

	events := notifier.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, ViewReasonTheme, events[0].Reason)
	assert.Equal(t, ThemeLight, events[0].Theme)

	_, err = session.LoadDashboard(ctx, "missing")
	assert.ErrorIs(t, err, ErrDashboardNotFound)
	assert.Equal(t, "d-demo-light", session.ActiveDashboardID())
}

func TestSessionExternalDashboard(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()

	view, err := session.LoadDashboard(ctx, "d-demo-analytics")
	require.NoError(t, err)
	assert.Equal(t, ViewExternal, view.Kind)
	assert.Equal(t, PageAnalytics, view.Page)
	assert.Contains(t, view.URL, "analytics.example.com")

	url, ok := session.ExternalURL("d-demo-analytics")
	assert.True(t, ok)
	assert.Equal(t, view.URL, url)
	_, ok = session.ExternalURL("d-demo-dark")
	assert.False(t, ok)

	assert.Equal(t, ViewGrid, session.ShowDashboard().Kind)
	assert.Equal(t, PageUsage, session.ShowExternal(" https://usage.example.com ", PageUsage).Page)
}

func TestSessionSaveForksSeedDashboard(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()
	require.NoError(t, session.Start(ctx))

	_, err := session.Grid().AddCatalogWidget(ctx, "chart3", nil)
	require.NoError(t, err)
	saved, err := session.Save(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, "d-demo-dark", saved.ID)
	assert.Equal(t, saved.ID, session.ActiveDashboardID())
	assert.Len(t, saved.WidgetInstances, 8)
	seed, ok := session.Store().Dashboard("d-demo-dark")
	require.True(t, ok)
	assert.Len(t, seed.WidgetInstances, 7)
}

func TestSessionSaveRequiresActiveDashboard(t *testing.T) {
	session, _ := newTestSession(t, nil)
	_, err := session.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveDashboard)
	_, _, err = session.RenameActive(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoActiveDashboard)
}

func TestSessionSaveAsAndRename(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()
	session.NewDashboard()
	_, err := session.Grid().AddEmbed(ctx, "https://example.com")
	require.NoError(t, err)

	created, err := session.SaveAs(ctx, "f2", "Embeds")
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.ActiveDashboardID())
	assert.Equal(t, ThemeDark, created.Theme)

	_, ok, err := session.RenameActive(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Embeds", session.Title())

	renamed, ok, err := session.RenameActive(ctx, "Embeds v2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.WidgetInstances, renamed.WidgetInstances)
	assert.Equal(t, "Embeds v2", session.Title())
}

func TestSessionDeleteClearsWorkingSet(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()
	require.NoError(t, session.Start(ctx))

	result, err := session.DeleteFolder(ctx, "f1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d-demo-dark", "d-demo-light"}, result.Dashboards)
	assert.Empty(t, session.ActiveDashboardID())
	assert.Equal(t, 0, session.Grid().Len())
	assert.Equal(t, DefaultTitle, session.Title())
}

func TestSessionEditModeAndLayouts(t *testing.T) {
	session, _ := newTestSession(t, nil)
	require.NoError(t, session.Start(context.Background()))

	assert.True(t, session.Layouts()["lg"][0].Static)
	assert.True(t, session.ToggleEditMode())
	assert.False(t, session.Layouts()["lg"][0].Static)
}

func TestSessionPanelMarksActive(t *testing.T) {
	session, _ := newTestSession(t, nil)
	require.NoError(t, session.Start(context.Background()))

	panel := session.Panel("")
	assert.Equal(t, "d-demo-dark", panel.ActiveDashboardID)
	assert.Len(t, panel.Groups, 2)
}

func TestSessionRenderPlans(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()
	require.NoError(t, session.Start(ctx))
	_, err := session.Grid().AddEmbed(ctx, "<div>hi</div>")
	require.NoError(t, err)
	style := DefaultStyleConfig()
	_, err = session.Grid().AddStyledEmbed(ctx, StyledWidget{WidgetOID: "w", DashboardOID: "d", Style: style})
	require.NoError(t, err)

	byID := map[string]RenderPlan{}
	for _, plan := range session.RenderPlans() {
		byID[plan.InstanceID] = plan
	}

	kpi := byID["kpi2-dark"]
	assert.Equal(t, RendererSurface, kpi.Renderer)
	assert.Empty(t, kpi.Title)
	assert.Equal(t, TransformThemed, kpi.Transform)
	require.NotNil(t, kpi.BeforeRender)
	require.NotNil(t, kpi.StyleOptions)
	assert.Equal(t, "#1F2838", kpi.StyleOptions.Header.BackgroundColor)

	chart := byID["chart1-dark"]
	assert.Equal(t, "LTD trial spend", chart.Title)
	out := chart.BeforeRender(dualAxisTree())
	assert.Equal(t, -40.0, out.Axes("yAxis")[1]["min"])

	custom := byID["kpi0-dark"]
	assert.Equal(t, RendererLTDExpensed, custom.Renderer)
	assert.Nil(t, custom.StyleOptions)

	table := byID["table1-dark"]
	assert.Nil(t, table.BeforeRender)

	var embed, styled RenderPlan
	for _, plan := range byID {
		switch plan.Kind {
		case KindEmbed:
			embed = plan
		case KindStyledEmbed:
			styled = plan
		}
	}
	assert.Equal(t, RendererCodeBlock, embed.Renderer)
	assert.Equal(t, "<div>hi</div>", embed.EmbedCode)
	assert.Equal(t, "w", styled.WidgetOID)
	require.NotNil(t, styled.BeforeRender)
	assert.Equal(t, "Medium", styled.StyleOptions.CornerRadius)
}

func TestSessionThemeForwardingStopsOnClose(t *testing.T) {
	notifier := &recordingNotifier{}
	session, _ := newTestSession(t, notifier)
	ctx := context.Background()

	_, err := session.Theme().Toggle(ctx)
	require.NoError(t, err)
	session.Close()
	_, err = session.Theme().Toggle(ctx)
	assert.ErrorIs(t, err, ErrThemeClosed)

	assert.Len(t, notifier.snapshot(), 1)
}

func TestSessionCloseClosesThemeService(t *testing.T) {
	session, _ := newTestSession(t, &recordingNotifier{})
	theme := session.Theme()
	require.Equal(t, 1, theme.Subscribers())

	session.Close()

	assert.Equal(t, 0, theme.Subscribers())
	assert.ErrorIs(t, theme.SetTheme(context.Background(), ThemeLight), ErrThemeClosed)
	_, err := theme.Subscribe(func(ThemeMode) {})
	assert.ErrorIs(t, err, ErrThemeClosed)
	assert.Equal(t, ThemeDark, theme.Theme())
}

func TestSessionFailedDeleteKeepsActiveDashboard(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStore{MemoryStore: NewMemoryStore(nil)}
	session, err := Bootstrap(ctx, BootstrapOptions{Storage: storage})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	require.Equal(t, "d-demo-dark", session.ActiveDashboardID())
	widgets := len(session.Grid().Instances())

	storage.fail = errors.New("disk full")
	_, err = session.DeleteDashboard(ctx, "d-demo-dark")
	require.Error(t, err)
	_, err = session.DeleteFolder(ctx, "f1")
	require.Error(t, err)

	assert.Equal(t, "d-demo-dark", session.ActiveDashboardID())
	assert.Len(t, session.Grid().Instances(), widgets)
	_, ok := session.Store().Dashboard("d-demo-dark")
	assert.True(t, ok)
}
