package composer

import "strings"

// PanelGroup is one folder with the dashboards filed under it.
type PanelGroup struct {
	Folder     Folder      `json:"folder"`
	Dashboards []Dashboard `json:"dashboards"`
}

// Panel is the side-panel view model.
type Panel struct {
	Search            string       `json:"search,omitempty"`
	Groups            []PanelGroup `json:"groups"`
	Ungrouped         []Dashboard  `json:"ungrouped"`
	Matches           []Dashboard  `json:"matches"`
	ActiveDashboardID string       `json:"activeDashboardId,omitempty"`
}

// BuildPanel groups dashboards by folder in folder order. Dashboards whose
// folder does not exist land in Ungrouped. With a search term, dashboards are
// filtered by name and a folder is kept when its name or any of its
// dashboards match.
func BuildPanel(folders []Folder, dashboards []Dashboard, search string) Panel {
	term := strings.ToLower(strings.TrimSpace(search))
	matches := func(name string) bool {
		return term == "" || strings.Contains(strings.ToLower(name), term)
	}

	known := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		known[f.ID] = struct{}{}
	}

	panel := Panel{
		Search:    strings.TrimSpace(search),
		Groups:    []PanelGroup{},
		Ungrouped: []Dashboard{},
		Matches:   []Dashboard{},
	}
	byFolder := map[string][]Dashboard{}
	childMatch := map[string]bool{}
	for _, d := range dashboards {
		if !matches(d.Name) {
			continue
		}
		panel.Matches = append(panel.Matches, d)
		if _, ok := known[d.FolderID]; !ok {
			panel.Ungrouped = append(panel.Ungrouped, d)
			continue
		}
		byFolder[d.FolderID] = append(byFolder[d.FolderID], d)
		childMatch[d.FolderID] = true
	}
	for _, f := range folders {
		if !matches(f.Name) && !childMatch[f.ID] {
			continue
		}
		list := byFolder[f.ID]
		if list == nil {
			list = []Dashboard{}
		}
		panel.Groups = append(panel.Groups, PanelGroup{Folder: f, Dashboards: list})
	}
	return panel
}
