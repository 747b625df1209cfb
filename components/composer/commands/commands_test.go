package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

func newSession(t *testing.T) *composer.Session {
	t.Helper()
	session, err := composer.Bootstrap(context.Background(), composer.BootstrapOptions{
		Storage: composer.NewMemoryStore(nil),
	})
	if err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

func TestCreateAndUpdateFolderCommands(t *testing.T) {
	session := newSession(t)
	telemetry := &stubTelemetry{}
	ctx := context.Background()

	var created composer.Folder
	if err := NewCreateFolderCommand(session, telemetry).Execute(ctx, CreateFolderInput{Name: "Ops", Color: "#111111", Result: &created}); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.ID == "" || created.Name != "Ops" {
		t.Fatalf("unexpected folder %+v", created)
	}

	var updated composer.Folder
	if err := NewUpdateFolderCommand(session, telemetry).Execute(ctx, UpdateFolderInput{ID: created.ID, Name: "Operations", Result: &updated}); err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Operations" || updated.Color != "#111111" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if telemetry.calls != 2 {
		t.Fatalf("expected 2 telemetry events, got %d", telemetry.calls)
	}
}

func TestUpdateFolderCommandUnknownID(t *testing.T) {
	cmd := NewUpdateFolderCommand(newSession(t), nil)
	err := cmd.Execute(context.Background(), UpdateFolderInput{ID: "missing", Name: "x"})
	if !errors.Is(err, composer.ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestUpdateFolderCommandKeepsSeedFolderOnNoop(t *testing.T) {
	session := newSession(t)
	cmd := NewUpdateFolderCommand(session, nil)
	ctx := context.Background()

	var result composer.Folder
	if err := cmd.Execute(ctx, UpdateFolderInput{ID: "f1", Result: &result}); err != nil {
		t.Fatalf("empty patch returned error: %v", err)
	}
	if result.ID != "f1" {
		t.Fatalf("expected seed folder back, got %+v", result)
	}
	err := cmd.Execute(ctx, UpdateFolderInput{ID: "f1", Name: "  "})
	if !errors.Is(err, composer.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if n := len(session.Store().Folders()); n != 2 {
		t.Fatalf("expected 2 folders, got %d", n)
	}
}

func TestDeleteFolderCommandCascades(t *testing.T) {
	session := newSession(t)
	var result composer.FolderDeletion
	if err := NewDeleteFolderCommand(session, nil).Execute(context.Background(), DeleteFolderInput{ID: "f1", Result: &result}); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if len(result.Dashboards) != 2 {
		t.Fatalf("expected both f1 dashboards removed, got %v", result.Dashboards)
	}
	if session.ActiveDashboardID() != "" {
		t.Fatalf("expected active dashboard cleared, got %q", session.ActiveDashboardID())
	}
	err := NewDeleteFolderCommand(session, nil).Execute(context.Background(), DeleteFolderInput{ID: "f1"})
	if !errors.Is(err, composer.ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound on second delete, got %v", err)
	}
}

func TestLoadDashboardCommand(t *testing.T) {
	session := newSession(t)
	var view composer.View
	cmd := NewLoadDashboardCommand(session, nil)
	if err := cmd.Execute(context.Background(), LoadDashboardInput{ID: "d-demo-analytics", Result: &view}); err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if view.Kind != composer.ViewExternal {
		t.Fatalf("expected external view, got %s", view.Kind)
	}
	if err := cmd.Execute(context.Background(), LoadDashboardInput{Result: &view}); err != nil {
		t.Fatalf("new dashboard returned error: %v", err)
	}
	if view.Kind != composer.ViewGrid || session.ActiveDashboardID() != "" || session.Grid().Len() != 0 {
		t.Fatalf("expected empty grid view, got %+v", view)
	}
	err := cmd.Execute(context.Background(), LoadDashboardInput{ID: "nope"})
	if !errors.Is(err, composer.ErrDashboardNotFound) {
		t.Fatalf("expected ErrDashboardNotFound, got %v", err)
	}
}

func TestSaveDashboardCommandSaveAsThenSave(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	cmd := NewSaveDashboardCommand(session, nil)

	var saved composer.Dashboard
	if err := cmd.Execute(ctx, SaveDashboardInput{FolderID: "f2", Name: "Copy", Result: &saved}); err != nil {
		t.Fatalf("save as returned error: %v", err)
	}
	if saved.Name != "Copy" || saved.FolderID != "f2" || len(saved.WidgetInstances) != 7 {
		t.Fatalf("unexpected saved dashboard %+v", saved)
	}
	if session.ActiveDashboardID() != saved.ID {
		t.Fatalf("expected save-as to activate %s", saved.ID)
	}

	if !session.Grid().Remove(ctx, "kpi2-dark") {
		t.Fatalf("expected kpi2-dark to be removed")
	}
	var overwritten composer.Dashboard
	if err := cmd.Execute(ctx, SaveDashboardInput{Result: &overwritten}); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	if overwritten.ID != saved.ID || len(overwritten.WidgetInstances) != 6 {
		t.Fatalf("unexpected overwrite %+v", overwritten)
	}
}

func TestSaveDashboardCommandWithoutActive(t *testing.T) {
	session := newSession(t)
	session.NewDashboard()
	err := NewSaveDashboardCommand(session, nil).Execute(context.Background(), SaveDashboardInput{})
	if !errors.Is(err, composer.ErrNoActiveDashboard) {
		t.Fatalf("expected ErrNoActiveDashboard, got %v", err)
	}
}

func TestRenameDashboardCommand(t *testing.T) {
	session := newSession(t)
	cmd := NewRenameDashboardCommand(session, nil)
	var renamed composer.Dashboard
	if err := cmd.Execute(context.Background(), RenameDashboardInput{Name: "Board", Result: &renamed}); err != nil {
		t.Fatalf("rename returned error: %v", err)
	}
	if renamed.Name != "Board" || session.ActiveDashboardID() != renamed.ID {
		t.Fatalf("expected active dashboard to follow rename, got %+v", renamed)
	}
	if err := cmd.Execute(context.Background(), RenameDashboardInput{Name: "   "}); err != nil {
		t.Fatalf("blank rename should be ignored, got %v", err)
	}
	err := cmd.Execute(context.Background(), RenameDashboardInput{ID: "missing", Name: "x"})
	if !errors.Is(err, composer.ErrDashboardNotFound) {
		t.Fatalf("expected ErrDashboardNotFound, got %v", err)
	}
}

func TestDeleteDashboardCommand(t *testing.T) {
	session := newSession(t)
	cmd := NewDeleteDashboardCommand(session, nil)
	if err := cmd.Execute(context.Background(), DeleteDashboardInput{ID: "d-demo-dark"}); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if session.Grid().Len() != 0 {
		t.Fatalf("expected working set cleared")
	}
	if err := cmd.Execute(context.Background(), DeleteDashboardInput{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestAddWidgetCommandDispatchesByKey(t *testing.T) {
	service := &stubWidgets{}
	cmd := NewAddWidgetCommand(service, nil)
	ctx := context.Background()

	if err := cmd.Execute(ctx, AddWidgetInput{Key: "kpi0"}); err != nil {
		t.Fatalf("catalog add returned error: %v", err)
	}
	if err := cmd.Execute(ctx, AddWidgetInput{Key: composer.EmbedKey, EmbedCode: "https://example.com"}); err != nil {
		t.Fatalf("embed add returned error: %v", err)
	}
	styled := composer.StyledWidget{WidgetOID: "w", DashboardOID: "d"}
	if err := cmd.Execute(ctx, AddWidgetInput{Key: composer.StyledEmbedKey, Styled: &styled}); err != nil {
		t.Fatalf("styled add returned error: %v", err)
	}
	if service.catalogCalls != 1 || service.embedCalls != 1 || service.styledCalls != 1 {
		t.Fatalf("unexpected dispatch %+v", service)
	}
	if err := cmd.Execute(ctx, AddWidgetInput{Key: composer.StyledEmbedKey}); !errors.Is(err, composer.ErrInvalidWidgets) {
		t.Fatalf("expected ErrInvalidWidgets, got %v", err)
	}
	if err := cmd.Execute(ctx, AddWidgetInput{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestAddWidgetCommandOnGrid(t *testing.T) {
	session := newSession(t)
	session.NewDashboard()
	var inst composer.WidgetInstance
	if err := NewAddWidgetCommand(session.Grid(), nil).Execute(context.Background(), AddWidgetInput{Key: "kpi0", Result: &inst}); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if inst.Layout.W != 3 || inst.Layout.H != 3 || inst.Layout.I != inst.InstanceID {
		t.Fatalf("unexpected instance %+v", inst)
	}
}

func TestUpdateWidgetCommand(t *testing.T) {
	service := &stubWidgets{}
	cmd := NewUpdateWidgetCommand(service, nil)
	ctx := context.Background()

	if err := cmd.Execute(ctx, UpdateWidgetInput{InstanceID: "a", EmbedCode: "<b>x</b>"}); err != nil {
		t.Fatalf("embed update returned error: %v", err)
	}
	if err := cmd.Execute(ctx, UpdateWidgetInput{InstanceID: "a", GridLineStyle: composer.GridLinesDots}); err != nil {
		t.Fatalf("grid line update returned error: %v", err)
	}
	if service.updateEmbedCalls != 1 || service.gridLineCalls != 1 {
		t.Fatalf("unexpected dispatch %+v", service)
	}
	if err := cmd.Execute(ctx, UpdateWidgetInput{InstanceID: "a"}); !errors.Is(err, composer.ErrInvalidWidgets) {
		t.Fatalf("expected ErrInvalidWidgets, got %v", err)
	}
}

func TestRemoveWidgetCommand(t *testing.T) {
	service := &stubWidgets{}
	cmd := NewRemoveWidgetCommand(service, nil)
	if err := cmd.Execute(context.Background(), RemoveWidgetInput{InstanceID: "widget-1"}); !errors.Is(err, composer.ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
	service.removeOK = true
	if err := cmd.Execute(context.Background(), RemoveWidgetInput{InstanceID: "widget-1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.removeCalls != 2 {
		t.Fatalf("expected remove calls")
	}
}

func TestChangeLayoutCommand(t *testing.T) {
	session := newSession(t)
	grid := session.Grid()
	cmd := NewChangeLayoutCommand(grid, nil)
	layout := []composer.GridItem{{I: "kpi2-dark", X: 0, Y: 0, W: 4, H: 3}}

	var out []composer.WidgetInstance
	if err := cmd.Execute(context.Background(), ChangeLayoutInput{Layout: layout, Result: &out}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(out) != 1 || out[0].Layout.W != 4 {
		t.Fatalf("expected single reconciled widget, got %+v", out)
	}

	resized := composer.GridItem{I: "kpi2-dark", X: 0, Y: 0, W: 6, H: 4}
	if err := cmd.Execute(context.Background(), ChangeLayoutInput{Layout: layout, Resized: &resized, Result: &out}); err != nil {
		t.Fatalf("resize returned error: %v", err)
	}
	grid.WaitSettled()
	if out[0].Layout.W != 6 || out[0].Layout.H != 4 {
		t.Fatalf("expected resized layout, got %+v", out[0].Layout)
	}
}

func TestSetThemeCommand(t *testing.T) {
	session := newSession(t)
	cmd := NewSetThemeCommand(session.Theme(), nil)
	var mode composer.ThemeMode
	if err := cmd.Execute(context.Background(), SetThemeInput{Result: &mode}); err != nil {
		t.Fatalf("toggle returned error: %v", err)
	}
	if mode != composer.ThemeLight {
		t.Fatalf("expected toggle to light, got %s", mode)
	}
	if err := cmd.Execute(context.Background(), SetThemeInput{Theme: "sepia"}); !errors.Is(err, composer.ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
}

func TestToggleEditModeAndShowView(t *testing.T) {
	session := newSession(t)
	var editable bool
	if err := NewToggleEditModeCommand(session, nil).Execute(context.Background(), ToggleEditModeInput{Result: &editable}); err != nil {
		t.Fatalf("toggle returned error: %v", err)
	}
	if editable != session.Editable() {
		t.Fatalf("result out of sync with session")
	}

	var view composer.View
	cmd := NewShowViewCommand(session, nil)
	if err := cmd.Execute(context.Background(), ShowViewInput{URL: "https://example.com/admin", Page: composer.PageAdmin, Result: &view}); err != nil {
		t.Fatalf("show external returned error: %v", err)
	}
	if view.Kind != composer.ViewExternal || view.Page != composer.PageAdmin {
		t.Fatalf("unexpected view %+v", view)
	}
	if err := cmd.Execute(context.Background(), ShowViewInput{Result: &view}); err != nil {
		t.Fatalf("show grid returned error: %v", err)
	}
	if view.Kind != composer.ViewGrid {
		t.Fatalf("expected grid view, got %+v", view)
	}
}

func TestLoadManifestCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := "version: \"1\"\nwidgets:\n  - key: ops1\n    title: Ops queue\n    category: chart\n    default_size: {w: 4, h: 4}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	catalog := composer.NewCatalog(nil)
	telemetry := &stubTelemetry{}
	if err := NewLoadManifestCommand(catalog, telemetry).Execute(context.Background(), LoadManifestInput{Path: path}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, ok := catalog.Resolve("ops1"); !ok {
		t.Fatalf("expected ops1 registered")
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry event")
	}
}

func TestCommandsRequireService(t *testing.T) {
	ctx := context.Background()
	checks := map[string]error{
		"create folder": NewCreateFolderCommand(nil, nil).Execute(ctx, CreateFolderInput{Name: "x"}),
		"load":          NewLoadDashboardCommand(nil, nil).Execute(ctx, LoadDashboardInput{}),
		"add widget":    NewAddWidgetCommand(nil, nil).Execute(ctx, AddWidgetInput{Key: "kpi0"}),
		"layout":        NewChangeLayoutCommand(nil, nil).Execute(ctx, ChangeLayoutInput{}),
		"theme":         NewSetThemeCommand(nil, nil).Execute(ctx, SetThemeInput{}),
		"manifest":      NewLoadManifestCommand(nil, nil).Execute(ctx, LoadManifestInput{Path: "x"}),
	}
	for name, err := range checks {
		if err == nil {
			t.Fatalf("%s: expected error without service", name)
		}
	}
}

type stubTelemetry struct {
	calls int
}

func (s *stubTelemetry) Record(context.Context, string, map[string]any) {
	s.calls++
}

type stubWidgets struct {
	catalogCalls      int
	embedCalls        int
	styledCalls       int
	updateEmbedCalls  int
	updateStyledCalls int
	gridLineCalls     int
	removeCalls       int
	removeOK          bool
}

func (s *stubWidgets) AddCatalogWidget(_ context.Context, key string, _ *composer.Size) (composer.WidgetInstance, error) {
	s.catalogCalls++
	return composer.WidgetInstance{InstanceID: key + "-1", Kind: composer.KindCatalog}, nil
}

func (s *stubWidgets) AddEmbed(context.Context, string) (composer.WidgetInstance, error) {
	s.embedCalls++
	return composer.WidgetInstance{InstanceID: "embed-1", Kind: composer.KindEmbed}, nil
}

func (s *stubWidgets) AddStyledEmbed(context.Context, composer.StyledWidget) (composer.WidgetInstance, error) {
	s.styledCalls++
	return composer.WidgetInstance{InstanceID: "styled-1", Kind: composer.KindStyledEmbed}, nil
}

func (s *stubWidgets) UpdateEmbed(_ context.Context, id, _ string) (composer.WidgetInstance, error) {
	s.updateEmbedCalls++
	return composer.WidgetInstance{InstanceID: id}, nil
}

func (s *stubWidgets) UpdateStyledEmbed(_ context.Context, id string, _ composer.StyledWidget) (composer.WidgetInstance, error) {
	s.updateStyledCalls++
	return composer.WidgetInstance{InstanceID: id}, nil
}

func (s *stubWidgets) SetGridLineStyle(_ context.Context, id string, _ composer.GridLineStyle) (composer.WidgetInstance, error) {
	s.gridLineCalls++
	return composer.WidgetInstance{InstanceID: id}, nil
}

func (s *stubWidgets) Remove(context.Context, string) bool {
	s.removeCalls++
	return s.removeOK
}
