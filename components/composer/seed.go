package composer

const demoDashboardOID = "684ae8c995906e3edc558210"

// Custom renderer names for widgets that draw themselves.
const (
	RendererLTDExpensed         = "ltd-expensed"
	RendererEnrollmentPercent   = "enrollment-percentage"
	RendererBudgetVsForecastKPI = "budget-vs-forecast"
)

// DefaultCatalogEntries is the built-in widget library.
func DefaultCatalogEntries() []CatalogEntry {
	kpi := Size{W: 3, H: 3}
	chart := Size{W: 6, H: 8}
	entry := func(key, title, category string, size Size, widgetOID string) CatalogEntry {
		e := CatalogEntry{Key: key, Title: title, Category: category, DefaultSize: size, WidgetOID: widgetOID}
		if widgetOID != "" {
			e.DashboardOID = demoDashboardOID
		}
		return e
	}
	withTransform := func(e CatalogEntry, transform string) CatalogEntry {
		e.Transform = transform
		return e
	}
	hidden := func(e CatalogEntry) CatalogEntry {
		e.HideTitle = true
		return e
	}
	custom := func(e CatalogEntry, renderer string) CatalogEntry {
		e.Renderer = renderer
		return e
	}

	return []CatalogEntry{
		custom(hidden(entry("kpi0", "LTD Expensed (Custom)", "kpi", kpi, "")), RendererLTDExpensed),
		custom(hidden(entry("kpi5", "Enrolled Patients % (Custom)", "kpi", kpi, "")), RendererEnrollmentPercent),
		hidden(withTransform(entry("kpi2", "Trial budget", "kpi", kpi, "684ae8c995906e3edc558214"), TransformThemed)),
		hidden(withTransform(entry("kpi1", "LTD Reconciled", "kpi", kpi, "684ae8c995906e3edc558213"), TransformThemed)),
		hidden(withTransform(entry("kpi4", "% Recognized", "kpi", kpi, "684ae8c995906e3edc558216"), TransformThemed)),
		withTransform(entry("chart1", "LTD trial spend", "chart", chart, "684ae8c995906e3edc558211"), TransformDualAxis),
		withTransform(entry("chart2", "Actual + forecast", "chart", chart, "684ae8c995906e3edc558212"), TransformActualForecast),
		custom(entry("chart7", "Budget vs. Forecast (Custom)", "chart", chart, "6865dfcbf8d1a5338388236e"), RendererBudgetVsForecastKPI),
		withTransform(entry("chart4", "Budget vs forecast by cost category", "chart", chart, "684ae8c995906e3edc558217"), TransformThemed),
		withTransform(entry("chart3", "Cumulative total spend", "chart", chart, "684c1e2f95906e3edc558321"), TransformThemed),
		withTransform(entry("chart5", "Vendor progress", "chart", chart, "684c118b95906e3edc55830c"), TransformThemed),
		entry("table1", "Financial Summary", "table", Size{W: 12, H: 8}, "684ae8c995906e3edc55821a"),
		{Key: EmbedKey, Title: "Embedded Content", Category: "embed", DefaultSize: chart, Renderer: RendererCodeBlock},
		{Key: StyledEmbedKey, Title: "Styled Widget", Category: "embed", DefaultSize: chart},
	}
}

// DefaultSeed is the demo content shipped with the application.
func DefaultSeed() SeedData {
	item := func(id, key string, x, y, w, h int) WidgetInstance {
		return WidgetInstance{
			InstanceID: id,
			Kind:       KindCatalog,
			CatalogKey: key,
			Layout:     GridItem{I: id, X: x, Y: y, W: w, H: h},
			Catalog:    &CatalogWidget{},
		}
	}
	overview := func(suffix string) []WidgetInstance {
		return []WidgetInstance{
			item("kpi2-"+suffix, "kpi2", 0, 0, 3, 3),
			item("kpi1-"+suffix, "kpi1", 3, 0, 3, 3),
			item("kpi4-"+suffix, "kpi4", 6, 0, 3, 3),
			item("kpi0-"+suffix, "kpi0", 9, 0, 3, 3),
			item("chart1-"+suffix, "chart1", 0, 3, 6, 8),
			item("chart2-"+suffix, "chart2", 6, 3, 6, 8),
			item("table1-"+suffix, "table1", 0, 11, 12, 8),
		}
	}
	return SeedData{
		Folders: []Folder{
			{ID: "f1", Name: "FP&A", Color: "#4486F8"},
			{ID: "f2", Name: "Analytics", Color: "#26B26F"},
		},
		Dashboards: []Dashboard{
			{ID: "d-demo-dark", Name: "Trial overview (dark)", FolderID: "f1", WidgetInstances: overview("dark"), Theme: ThemeDark},
			{ID: "d-demo-light", Name: "Trial overview (light)", FolderID: "f1", WidgetInstances: overview("light"), Theme: ThemeLight},
			{
				ID:              "d-demo-analytics",
				Name:            "Analytics home",
				FolderID:        "f2",
				WidgetInstances: []WidgetInstance{},
				Theme:           ThemeDark,
				IframeURL:       "https://analytics.example.com/app/main/home?embed=true",
			},
		},
		DefaultDashboardID: "d-demo-dark",
	}
}
