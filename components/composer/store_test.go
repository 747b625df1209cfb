package composer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	getErr error
	setErr error
}

func (f failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, f.getErr
}

func (f failingStore) Set(context.Context, string, string) error {
	return f.setErr
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

type recordingTelemetry struct {
	events []recordedEvent
}

func (r *recordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	r.events = append(r.events, recordedEvent{name: event, payload: payload})
}

func (r *recordingTelemetry) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.name
	}
	return out
}

func newTestStore(t *testing.T, storage KeyValueStore) *EntityStore {
	t.Helper()
	store, err := NewEntityStore(StoreOptions{Storage: storage, Seed: DefaultSeed()})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func persistedIDs(t *testing.T, storage *MemoryStore) []string {
	t.Helper()
	snapshot := storage.Snapshot()
	var ids []string
	var folders []Folder
	if raw := snapshot[KeyFolders]; raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &folders))
	}
	for _, f := range folders {
		ids = append(ids, f.ID)
	}
	var dashboards []Dashboard
	if raw := snapshot[KeyDashboards]; raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &dashboards))
	}
	for _, d := range dashboards {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestNewEntityStoreRequiresStorage(t *testing.T) {
	_, err := NewEntityStore(StoreOptions{})
	assert.ErrorIs(t, err, ErrMissingStorage)
}

func TestNewEntityStoreRejectsInvalidSeed(t *testing.T) {
	seed := SeedData{
		Folders: []Folder{{ID: "f1", Name: "A"}, {ID: "f1", Name: "B"}},
		Dashboards: []Dashboard{{
			ID:   "d1",
			Name: "Broken",
			WidgetInstances: []WidgetInstance{{
				InstanceID: "w1", Kind: KindCatalog, CatalogKey: "kpi0",
				Layout: GridItem{I: "other"},
			}},
		}},
	}
	_, err := NewEntityStore(StoreOptions{Storage: NewMemoryStore(nil), Seed: seed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate seed folder f1")
	assert.ErrorIs(t, err, ErrInvalidWidgets)
}

func TestEntityStoreLoadSeedOnly(t *testing.T) {
	store := newTestStore(t, NewMemoryStore(nil))

	assert.Len(t, store.Folders(), 2)
	assert.Len(t, store.Dashboards(), 3)
	assert.True(t, store.IsSeed("f1"))
	assert.Equal(t, "d-demo-dark", store.DefaultDashboardID())
}

func TestEntityStoreMergeIdempotence(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStore(nil)
	store := newTestStore(t, storage)
	_, err := store.AddFolder(ctx, "Mine", "#fff")
	require.NoError(t, err)
	_, err = store.AddDashboard(ctx, DashboardInput{Name: "Scratch", FolderID: "f1"})
	require.NoError(t, err)

	first := newTestStore(t, storage)
	second := newTestStore(t, storage)
	require.NoError(t, second.Load(ctx))

	if diff := cmp.Diff(first.Folders(), second.Folders()); diff != "" {
		t.Fatalf("folders differ between loads (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Dashboards(), second.Dashboards()); diff != "" {
		t.Fatalf("dashboards differ between loads (-first +second):\n%s", diff)
	}
}

func TestEntityStorePersistedWinsOnCollision(t *testing.T) {
	persisted, err := json.Marshal([]Folder{{ID: "f1", Name: "Renamed seed"}, {ID: "u1", Name: "User"}, {ID: "u1", Name: "Dup"}})
	require.NoError(t, err)
	store := newTestStore(t, NewMemoryStore(map[string]string{KeyFolders: string(persisted)}))

	folders := store.Folders()
	require.Len(t, folders, 3)
	assert.Equal(t, "Renamed seed", folders[0].Name)
	assert.Equal(t, "User", folders[1].Name)
	assert.Equal(t, "f2", folders[2].ID)
}

func TestEntityStoreMalformedDataLoadsEmpty(t *testing.T) {
	telemetry := &recordingTelemetry{}
	storage := NewMemoryStore(map[string]string{KeyFolders: "{not json", KeyDashboards: `"nope"`})
	store, err := NewEntityStore(StoreOptions{Storage: storage, Telemetry: telemetry})
	require.NoError(t, err)

	require.NoError(t, store.Load(context.Background()))
	assert.Empty(t, store.Folders())
	assert.Empty(t, store.Dashboards())
	assert.Contains(t, telemetry.names(), "composer.store.malformed")
}

func TestEntityStoreLoadSurfacesStorageErrors(t *testing.T) {
	boom := errors.New("boom")
	store, err := NewEntityStore(StoreOptions{Storage: failingStore{getErr: boom}})
	require.NoError(t, err)
	assert.ErrorIs(t, store.Load(context.Background()), boom)
}

func TestEntityStoreCascadeDelete(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStore(nil)
	store := newTestStore(t, storage)
	folder, err := store.AddFolder(ctx, "Team", "")
	require.NoError(t, err)
	a, err := store.AddDashboard(ctx, DashboardInput{Name: "A", FolderID: folder.ID})
	require.NoError(t, err)
	b, err := store.AddDashboard(ctx, DashboardInput{Name: "B", FolderID: folder.ID})
	require.NoError(t, err)
	other, err := store.AddDashboard(ctx, DashboardInput{Name: "Other", FolderID: "f1"})
	require.NoError(t, err)
	beforeFolders := store.Folders()

	result, err := store.DeleteFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, result.Dashboards)

	_, ok := store.Folder(folder.ID)
	assert.False(t, ok)
	for _, d := range store.Dashboards() {
		assert.NotEqual(t, folder.ID, d.FolderID)
	}
	kept, ok := store.Dashboard(other.ID)
	require.True(t, ok)
	assert.Equal(t, other, kept)
	assert.Len(t, store.Folders(), len(beforeFolders)-1)
	assert.Len(t, store.Dashboards(), 4)
}

func TestEntityStoreDeleteMissingFolder(t *testing.T) {
	store := newTestStore(t, NewMemoryStore(nil))
	result, err := store.DeleteFolder(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestEntityStorePersistencePartition(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStore(nil)
	store := newTestStore(t, storage)

	_, err := store.AddFolder(ctx, "Team", "")
	require.NoError(t, err)
	_, _, err = store.UpdateFolder(ctx, "f1", FolderPatch{Name: "FP&A (mine)"})
	require.NoError(t, err)
	_, _, err = store.RenameDashboard(ctx, "d-demo-light", "Light copy")
	require.NoError(t, err)
	_, err = store.DeleteDashboard(ctx, "d-demo-analytics")
	require.NoError(t, err)

	seed := DefaultSeed()
	seedIDs := map[string]bool{}
	for _, f := range seed.Folders {
		seedIDs[f.ID] = true
	}
	for _, d := range seed.Dashboards {
		seedIDs[d.ID] = true
	}
	ids := persistedIDs(t, storage)
	require.Len(t, ids, 3)
	for _, id := range ids {
		assert.False(t, seedIDs[id], "seed id %s was persisted", id)
	}
}

func TestEntityStoreSeedEditsFork(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStore(nil))

	folder, ok, err := store.UpdateFolder(ctx, "f1", FolderPatch{Color: "#000000"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "f1", folder.ID)
	assert.Equal(t, "FP&A", folder.Name)
	assert.Equal(t, "#000000", folder.Color)

	original, ok := store.Folder("f1")
	require.True(t, ok)
	assert.Equal(t, "#4486F8", original.Color)
}

func TestEntityStoreRenameLeavesWidgetsAndTheme(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStore(nil))
	created, err := store.AddDashboard(ctx, DashboardInput{
		Name:            "Mine",
		FolderID:        "f1",
		Theme:           ThemeLight,
		WidgetInstances: []WidgetInstance{catalogInstance("kpi0-1", "kpi0", 0, 0, 3, 3)},
	})
	require.NoError(t, err)

	renamed, ok, err := store.RenameDashboard(ctx, created.ID, "  Renamed  ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Renamed", renamed.Name)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, created.WidgetInstances, renamed.WidgetInstances)
	assert.Equal(t, ThemeLight, renamed.Theme)
}

func TestEntityStoreValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStore(nil))

	_, err := store.AddFolder(ctx, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = store.AddDashboard(ctx, DashboardInput{
		Name:            "Bad",
		WidgetInstances: []WidgetInstance{catalogInstance("a", "kpi0", 0, 0, 3, 3), catalogInstance("a", "kpi1", 3, 0, 3, 3)},
	})
	assert.ErrorIs(t, err, ErrInvalidWidgets)

	_, ok, err := store.RenameDashboard(ctx, "missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntityStoreUpdateContent(t *testing.T) {
	ctx := context.Background()
	telemetry := &recordingTelemetry{}
	store, err := NewEntityStore(StoreOptions{Storage: NewMemoryStore(nil), Telemetry: telemetry})
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))

	created, err := store.AddDashboard(ctx, DashboardInput{Name: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, created.Theme)
	assert.NotNil(t, created.WidgetInstances)

	widgets := []WidgetInstance{catalogInstance("chart1-1", "chart1", 0, 0, 6, 8)}
	saved, ok, err := store.UpdateDashboardContent(ctx, created.ID, widgets, ThemeLight)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, widgets, saved.WidgetInstances)
	assert.Equal(t, ThemeLight, saved.Theme)
	assert.Equal(t, []string{"composer.store.loaded", "composer.dashboard.created", "composer.dashboard.saved"}, telemetry.names())
}

// flakyStore is a MemoryStore whose writes fail while fail is set.
type flakyStore struct {
	*MemoryStore
	fail error
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.fail != nil {
		return f.fail
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestEntityStoreWriteFailure(t *testing.T) {
	boom := errors.New("disk full")
	store, err := NewEntityStore(StoreOptions{Storage: failingStore{setErr: boom}})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	_, err = store.AddFolder(context.Background(), "x", "")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Folders())
}

func TestEntityStoreWriteFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStore{MemoryStore: NewMemoryStore(nil)}
	store := newTestStore(t, storage)
	team, err := store.AddFolder(ctx, "Team", "")
	require.NoError(t, err)
	mine, err := store.AddDashboard(ctx, DashboardInput{Name: "Mine", FolderID: team.ID})
	require.NoError(t, err)

	folders := store.Folders()
	dashboards := store.Dashboards()
	boom := errors.New("disk full")
	storage.fail = boom

	_, err = store.AddFolder(ctx, "ghost", "")
	assert.ErrorIs(t, err, boom)
	_, _, err = store.UpdateFolder(ctx, team.ID, FolderPatch{Name: "Renamed"})
	assert.ErrorIs(t, err, boom)
	_, _, err = store.UpdateFolder(ctx, "f1", FolderPatch{Color: "#000000"})
	assert.ErrorIs(t, err, boom)
	_, err = store.DeleteFolder(ctx, team.ID)
	assert.ErrorIs(t, err, boom)
	_, err = store.AddDashboard(ctx, DashboardInput{Name: "ghost"})
	assert.ErrorIs(t, err, boom)
	_, _, err = store.RenameDashboard(ctx, mine.ID, "Renamed")
	assert.ErrorIs(t, err, boom)
	_, _, err = store.RenameDashboard(ctx, "d-demo-dark", "Forked")
	assert.ErrorIs(t, err, boom)
	_, err = store.DeleteDashboard(ctx, mine.ID)
	assert.ErrorIs(t, err, boom)

	if diff := cmp.Diff(folders, store.Folders()); diff != "" {
		t.Fatalf("folders changed after failed writes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(dashboards, store.Dashboards()); diff != "" {
		t.Fatalf("dashboards changed after failed writes (-want +got):\n%s", diff)
	}

	storage.fail = nil
	kept, err := store.AddFolder(ctx, "real", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{team.ID, kept.ID, mine.ID}, persistedIDs(t, storage.MemoryStore))
}

func TestEntityStoreUpdateFolderNoop(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStore(nil)
	store := newTestStore(t, storage)

	folder, ok, err := store.UpdateFolder(ctx, "f1", FolderPatch{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f1", folder.ID)

	folder, ok, err = store.UpdateFolder(ctx, "f1", FolderPatch{Name: "FP&A", Color: "#4486F8"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f1", folder.ID)

	assert.Len(t, store.Folders(), 2)
	assert.Empty(t, persistedIDs(t, storage))
}

func TestEntityStoreUpdateFolderBlankName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStore(nil))
	team, err := store.AddFolder(ctx, "Team", "")
	require.NoError(t, err)

	_, _, err = store.UpdateFolder(ctx, "f1", FolderPatch{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidName)
	_, _, err = store.UpdateFolder(ctx, team.ID, FolderPatch{Name: "\t"})
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.Len(t, store.Folders(), 3)
	got, ok := store.Folder(team.ID)
	require.True(t, ok)
	assert.Equal(t, "Team", got.Name)
}

func catalogInstance(id, key string, x, y, w, h int) WidgetInstance {
	return WidgetInstance{
		InstanceID: id,
		Kind:       KindCatalog,
		CatalogKey: key,
		Layout:     GridItem{I: id, X: x, Y: y, W: w, H: h},
		Catalog:    &CatalogWidget{},
	}
}
