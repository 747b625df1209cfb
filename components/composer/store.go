package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// StoreOptions configures an EntityStore. Storage is required; the remaining
// collaborators default to safe implementations.
type StoreOptions struct {
	Storage   KeyValueStore
	Seed      SeedData
	IDs       IDGenerator
	Telemetry Telemetry
}

// EntityStore owns folders and dashboards. It merges user-authored entities
// with read-only seed content and only ever persists the user partition.
type EntityStore struct {
	mu         sync.Mutex
	storage    KeyValueStore
	seed       SeedData
	seedIDs    map[string]struct{}
	ids        IDGenerator
	telemetry  Telemetry
	folders    []Folder
	dashboards []Dashboard
}

// NewEntityStore validates the seed content and returns an empty store; call
// Load to populate it.
func NewEntityStore(opts StoreOptions) (*EntityStore, error) {
	if opts.Storage == nil {
		return nil, ErrMissingStorage
	}
	if err := validateSeed(opts.Seed); err != nil {
		return nil, err
	}
	seedIDs := make(map[string]struct{}, len(opts.Seed.Folders)+len(opts.Seed.Dashboards))
	for _, f := range opts.Seed.Folders {
		seedIDs[f.ID] = struct{}{}
	}
	for _, d := range opts.Seed.Dashboards {
		seedIDs[d.ID] = struct{}{}
	}
	return &EntityStore{
		storage:   opts.Storage,
		seed:      SeedData{Folders: cloneFolders(opts.Seed.Folders), Dashboards: cloneDashboards(opts.Seed.Dashboards), DefaultDashboardID: opts.Seed.DefaultDashboardID},
		seedIDs:   seedIDs,
		ids:       normalizeIDs(opts.IDs),
		telemetry: normalizeTelemetry(opts.Telemetry),
	}, nil
}

func validateSeed(seed SeedData) error {
	var errs []error
	folderIDs := map[string]struct{}{}
	for _, f := range seed.Folders {
		if f.ID == "" {
			errs = append(errs, fmt.Errorf("composer: seed folder %q has no id", f.Name))
			continue
		}
		if _, dup := folderIDs[f.ID]; dup {
			errs = append(errs, fmt.Errorf("composer: duplicate seed folder %s", f.ID))
		}
		folderIDs[f.ID] = struct{}{}
	}
	dashboardIDs := map[string]struct{}{}
	for _, d := range seed.Dashboards {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("composer: seed dashboard %q has no id", d.Name))
			continue
		}
		if _, dup := dashboardIDs[d.ID]; dup {
			errs = append(errs, fmt.Errorf("composer: duplicate seed dashboard %s", d.ID))
		}
		dashboardIDs[d.ID] = struct{}{}
		if err := ValidateInstances(d.WidgetInstances); err != nil {
			errs = append(errs, fmt.Errorf("seed dashboard %s: %w", d.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Load reads both collections from storage and merges them with the seed.
// Absent or malformed values load as empty; only storage failures are returned.
func (s *EntityStore) Load(ctx context.Context) error {
	folders, err := readCollection[Folder](ctx, s, KeyFolders)
	if err != nil {
		return err
	}
	dashboards, err := readCollection[Dashboard](ctx, s, KeyDashboards)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = mergeByID(folders, cloneFolders(s.seed.Folders), func(f Folder) string { return f.ID })
	s.dashboards = mergeByID(dashboards, cloneDashboards(s.seed.Dashboards), func(d Dashboard) string { return d.ID })
	s.telemetry.Record(ctx, "composer.store.loaded", map[string]any{
		"folders":    len(s.folders),
		"dashboards": len(s.dashboards),
	})
	return nil
}

func readCollection[T any](ctx context.Context, s *EntityStore, key string) ([]T, error) {
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("composer: read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.telemetry.Record(ctx, "composer.store.malformed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		return nil, nil
	}
	return out, nil
}

// mergeByID keeps persisted entries first (first occurrence wins) and appends
// seed entries whose id is not already present.
func mergeByID[T any](persisted, seed []T, id func(T) string) []T {
	out := make([]T, 0, len(persisted)+len(seed))
	seen := make(map[string]struct{}, len(persisted)+len(seed))
	for _, item := range persisted {
		key := id(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	for _, item := range seed {
		if _, ok := seen[id(item)]; ok {
			continue
		}
		seen[id(item)] = struct{}{}
		out = append(out, item)
	}
	return out
}

// commit writes the non-seed partition of folders and dashboards and only
// then makes them the store's state, so a failed write leaves memory as it
// was. Callers hold s.mu and pass slices they own.
func (s *EntityStore) commit(ctx context.Context, folders []Folder, dashboards []Dashboard) error {
	userFolders := make([]Folder, 0, len(folders))
	for _, f := range folders {
		if !s.isSeed(f.ID) {
			userFolders = append(userFolders, f)
		}
	}
	userDashboards := make([]Dashboard, 0, len(dashboards))
	for _, d := range dashboards {
		if !s.isSeed(d.ID) {
			userDashboards = append(userDashboards, d)
		}
	}
	if err := s.write(ctx, KeyFolders, userFolders); err != nil {
		return err
	}
	if err := s.write(ctx, KeyDashboards, userDashboards); err != nil {
		return err
	}
	s.folders = folders
	s.dashboards = dashboards
	return nil
}

func (s *EntityStore) write(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("composer: encode %s: %w", key, err)
	}
	if err := s.storage.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("composer: write %s: %w", key, err)
	}
	return nil
}

func (s *EntityStore) isSeed(id string) bool {
	_, ok := s.seedIDs[id]
	return ok
}

// IsSeed reports whether id belongs to the built-in seed content.
func (s *EntityStore) IsSeed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSeed(id)
}

// DefaultDashboardID is the dashboard activated after load, if any.
func (s *EntityStore) DefaultDashboardID() string {
	return s.seed.DefaultDashboardID
}

// Folders returns a copy of all folders in display order.
func (s *EntityStore) Folders() []Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFolders(s.folders)
}

// Dashboards returns a deep copy of all dashboards in display order.
func (s *EntityStore) Dashboards() []Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDashboards(s.dashboards)
}

// Folder looks up a folder by id.
func (s *EntityStore) Folder(id string) (Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.folderIndex(id); idx >= 0 {
		return s.folders[idx], true
	}
	return Folder{}, false
}

// Dashboard looks up a dashboard by id.
func (s *EntityStore) Dashboard(id string) (Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.dashboardIndex(id); idx >= 0 {
		return s.dashboards[idx].clone(), true
	}
	return Dashboard{}, false
}

func (s *EntityStore) folderIndex(id string) int {
	for i, f := range s.folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s *EntityStore) dashboardIndex(id string) int {
	for i, d := range s.dashboards {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *EntityStore) newFolderID() string {
	return uniqueID(s.ids, "f", func(id string) bool { return s.folderIndex(id) >= 0 || s.isSeed(id) })
}

func (s *EntityStore) newDashboardID() string {
	return uniqueID(s.ids, "d", func(id string) bool { return s.dashboardIndex(id) >= 0 || s.isSeed(id) })
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// AddFolder creates a folder.
func (s *EntityStore) AddFolder(ctx context.Context, name, color string) (Folder, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Folder{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	folder := Folder{ID: s.newFolderID(), Name: name, Color: strings.TrimSpace(color)}
	folders := append(cloneFolders(s.folders), folder)
	if err := s.commit(ctx, folders, s.dashboards); err != nil {
		return Folder{}, err
	}
	s.telemetry.Record(ctx, "composer.folder.created", map[string]any{"folder_id": folder.ID})
	return folder, nil
}

// UpdateFolder renames and/or recolors a folder. Empty patch fields leave the
// current value; a name made only of spaces is ErrInvalidName. A patch that
// changes nothing returns the folder untouched. Editing a seed folder appends
// an edited copy with a new id.
func (s *EntityStore) UpdateFolder(ctx context.Context, id string, patch FolderPatch) (Folder, bool, error) {
	var name string
	if patch.Name != "" {
		var err error
		if name, err = normalizeName(patch.Name); err != nil {
			return Folder{}, false, err
		}
	}
	color := strings.TrimSpace(patch.Color)
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.folderIndex(id)
	if idx < 0 {
		return Folder{}, false, nil
	}
	current := s.folders[idx]
	folder := current
	if name != "" {
		folder.Name = name
	}
	if color != "" {
		folder.Color = color
	}
	if folder == current {
		return current, true, nil
	}
	folders := cloneFolders(s.folders)
	if s.isSeed(id) {
		folder.ID = s.newFolderID()
		folders = append(folders, folder)
	} else {
		folders[idx] = folder
	}
	if err := s.commit(ctx, folders, s.dashboards); err != nil {
		return Folder{}, true, err
	}
	s.telemetry.Record(ctx, "composer.folder.updated", map[string]any{"folder_id": folder.ID, "source_id": id})
	return folder, true, nil
}

// DeleteFolder removes a folder and every dashboard filed under it.
func (s *EntityStore) DeleteFolder(ctx context.Context, id string) (FolderDeletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.folderIndex(id)
	if idx < 0 {
		return FolderDeletion{}, nil
	}
	result := FolderDeletion{Folder: s.folders[idx], Found: true}
	folders := append(s.folders[:idx:idx], s.folders[idx+1:]...)
	kept := make([]Dashboard, 0, len(s.dashboards))
	for _, d := range s.dashboards {
		if d.FolderID == id {
			result.Dashboards = append(result.Dashboards, d.ID)
			continue
		}
		kept = append(kept, d)
	}
	if err := s.commit(ctx, folders, kept); err != nil {
		return result, err
	}
	s.telemetry.Record(ctx, "composer.folder.deleted", map[string]any{
		"folder_id":  id,
		"dashboards": len(result.Dashboards),
	})
	return result, nil
}

// AddDashboard creates a dashboard. An unset theme defaults to dark.
func (s *EntityStore) AddDashboard(ctx context.Context, in DashboardInput) (Dashboard, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return Dashboard{}, err
	}
	if err := ValidateInstances(in.WidgetInstances); err != nil {
		return Dashboard{}, err
	}
	widgets := cloneInstances(in.WidgetInstances)
	if widgets == nil {
		widgets = []WidgetInstance{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dashboard := Dashboard{
		ID:              s.newDashboardID(),
		Name:            name,
		FolderID:        in.FolderID,
		WidgetInstances: widgets,
		Theme:           in.Theme.OrDefault(ThemeDark),
		IframeURL:       strings.TrimSpace(in.IframeURL),
	}
	dashboards := append(s.dashboards[:len(s.dashboards):len(s.dashboards)], dashboard)
	if err := s.commit(ctx, s.folders, dashboards); err != nil {
		return Dashboard{}, err
	}
	s.telemetry.Record(ctx, "composer.dashboard.created", map[string]any{
		"dashboard_id": dashboard.ID,
		"folder_id":    dashboard.FolderID,
		"widgets":      len(widgets),
	})
	return dashboard.clone(), nil
}

// RenameDashboard changes only the dashboard name.
func (s *EntityStore) RenameDashboard(ctx context.Context, id, name string) (Dashboard, bool, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Dashboard{}, false, err
	}
	return s.editDashboard(ctx, id, "composer.dashboard.renamed", func(d *Dashboard) {
		d.Name = name
	})
}

// UpdateDashboardContent overwrites the widget list and theme ("save over").
func (s *EntityStore) UpdateDashboardContent(ctx context.Context, id string, widgets []WidgetInstance, theme ThemeMode) (Dashboard, bool, error) {
	if err := ValidateInstances(widgets); err != nil {
		return Dashboard{}, false, err
	}
	widgets = cloneInstances(widgets)
	if widgets == nil {
		widgets = []WidgetInstance{}
	}
	return s.editDashboard(ctx, id, "composer.dashboard.saved", func(d *Dashboard) {
		d.WidgetInstances = widgets
		d.Theme = theme.OrDefault(d.Theme.OrDefault(ThemeDark))
	})
}

func (s *EntityStore) editDashboard(ctx context.Context, id, event string, edit func(*Dashboard)) (Dashboard, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.dashboardIndex(id)
	if idx < 0 {
		return Dashboard{}, false, nil
	}
	dashboard := s.dashboards[idx].clone()
	edit(&dashboard)
	dashboards := append([]Dashboard(nil), s.dashboards...)
	if s.isSeed(id) {
		dashboard.ID = s.newDashboardID()
		dashboards = append(dashboards, dashboard)
	} else {
		dashboards[idx] = dashboard
	}
	if err := s.commit(ctx, s.folders, dashboards); err != nil {
		return Dashboard{}, true, err
	}
	s.telemetry.Record(ctx, event, map[string]any{"dashboard_id": dashboard.ID, "source_id": id})
	return dashboard.clone(), true, nil
}

// DeleteDashboard removes a dashboard. Seed dashboards disappear for the
// lifetime of the store only, since seed content is never persisted.
func (s *EntityStore) DeleteDashboard(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.dashboardIndex(id)
	if idx < 0 {
		return false, nil
	}
	dashboards := append(s.dashboards[:idx:idx], s.dashboards[idx+1:]...)
	if err := s.commit(ctx, s.folders, dashboards); err != nil {
		return true, err
	}
	s.telemetry.Record(ctx, "composer.dashboard.deleted", map[string]any{"dashboard_id": id})
	return true, nil
}
