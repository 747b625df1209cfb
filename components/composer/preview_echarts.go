package composer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultPreviewHeight = "420px"

var sharedPreviewCache = NewMemoryPreviewCache(5 * time.Minute)

// PreviewRenderer turns an option tree into standalone chart HTML. Column
// series stack on the primary axis; line series (or any series bound to
// yAxis 1) overlap on the secondary axis.
type PreviewRenderer struct {
	cache      PreviewCache
	assetsHost string
	height     string
}

// PreviewOption customizes a PreviewRenderer.
type PreviewOption func(*PreviewRenderer)

// WithPreviewCache injects a preview cache. Nil disables caching.
func WithPreviewCache(cache PreviewCache) PreviewOption {
	return func(p *PreviewRenderer) {
		p.cache = cache
	}
}

// WithPreviewAssetsHost loads the ECharts runtime from host.
func WithPreviewAssetsHost(host string) PreviewOption {
	return func(p *PreviewRenderer) {
		p.assetsHost = host
	}
}

// WithPreviewHeight sets the chart height (CSS length).
func WithPreviewHeight(height string) PreviewOption {
	return func(p *PreviewRenderer) {
		p.height = height
	}
}

// NewPreviewRenderer builds a renderer with the shared cache.
func NewPreviewRenderer(options ...PreviewOption) *PreviewRenderer {
	p := &PreviewRenderer{
		cache:  sharedPreviewCache,
		height: defaultPreviewHeight,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Render draws tree for theme and returns the HTML page.
func (p *PreviewRenderer) Render(tree ChartOptions, theme ThemeMode) (string, error) {
	if len(tree.Series()) == 0 {
		return "", fmt.Errorf("composer: preview requires at least one series")
	}
	render := func() (string, error) { return p.render(tree.Clone(), theme) }
	if p.cache == nil {
		return render()
	}
	return p.cache.Preview(PreviewKey{Options: tree, Theme: theme, AssetsHost: p.assetsHost, Height: p.height}, render)
}

// RenderPlan applies the plan's BeforeRender hook to tree and draws it.
func (p *PreviewRenderer) RenderPlan(plan RenderPlan, tree ChartOptions) (string, error) {
	working := tree.Clone()
	if plan.BeforeRender != nil {
		working = plan.BeforeRender(working)
	}
	if plan.Title != "" {
		working.Section("title")["text"] = plan.Title
	}
	return p.Render(working, plan.Theme)
}

func (p *PreviewRenderer) render(tree ChartOptions, theme ThemeMode) (string, error) {
	categories := previewCategories(tree)
	var primary, secondary []map[string]any
	for _, s := range tree.Series() {
		if isSecondarySeries(s) {
			secondary = append(secondary, s)
		} else {
			primary = append(primary, s)
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(p.globalOptions(tree, theme)...)
	bar.SetXAxis(categories)

	axes := tree.Axes("yAxis")
	if len(secondary) > 0 {
		bar.ExtendYAxis(previewAxis(axisAt(axes, 1)))
	}
	stack := ""
	if stacking := stringValue(nestedValue(tree, "plotOptions", "column", "stacking"), ""); stacking != "" {
		stack = "primary"
	}
	for _, s := range primary {
		bar.AddSeries(
			stringValue(s["name"], "Series"),
			toPreviewBars(seriesValues(s), categories),
			charts.WithBarChartOpts(opts.BarChart{Stack: stack}),
		)
	}

	if len(secondary) > 0 {
		line := charts.NewLine()
		line.SetXAxis(categories)
		for _, s := range secondary {
			line.AddSeries(
				stringValue(s["name"], "Series"),
				toPreviewLine(seriesValues(s), categories),
				charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
			)
		}
		bar.Overlap(line)
	}
	return renderChart(bar)
}

func (p *PreviewRenderer) globalOptions(tree ChartOptions, theme ThemeMode) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  previewTheme(theme),
		Width:  "100%",
		Height: p.height,
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	title := ""
	if t, ok := asMap(tree["title"]); ok {
		title = stringValue(t["text"], "")
	}
	legendShow := true
	if legend, ok := asMap(tree["legend"]); ok {
		if enabled, ok := legend["enabled"].(bool); ok {
			legendShow = enabled
		}
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(legendShow)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(previewAxis(axisAt(tree.Axes("yAxis"), 0))),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func previewTheme(theme ThemeMode) string {
	if theme.OrDefault(ThemeDark) == ThemeDark {
		return types.ThemeChalk
	}
	return types.ThemeWesteros
}

func isSecondarySeries(s map[string]any) bool {
	if idx, ok := numberValue(s["yAxis"]); ok && idx >= 1 {
		return true
	}
	kind := strings.ToLower(stringValue(s["type"], ""))
	return kind == "line" || kind == "spline"
}

func previewCategories(tree ChartOptions) []string {
	for _, axis := range tree.Axes("xAxis") {
		switch cats := axis["categories"].(type) {
		case []string:
			return append([]string(nil), cats...)
		case []any:
			out := make([]string, len(cats))
			for i, c := range cats {
				out[i] = fmt.Sprint(c)
			}
			return out
		}
	}
	n := 0
	for _, s := range tree.Series() {
		n = max(n, len(seriesValues(s)))
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d", i+1)
	}
	return out
}

func axisAt(axes []map[string]any, i int) map[string]any {
	if i < len(axes) {
		return axes[i]
	}
	return map[string]any{}
}

func previewAxis(axis map[string]any) opts.YAxis {
	y := opts.YAxis{Type: "value"}
	if t, ok := asMap(axis["title"]); ok {
		y.Name = stringValue(t["text"], "")
	}
	if v, ok := numberValue(axis["min"]); ok {
		y.Min = v
	}
	if v, ok := numberValue(axis["max"]); ok {
		y.Max = v
	}
	return y
}

func nestedValue(tree ChartOptions, path ...string) any {
	var current any = map[string]any(tree)
	for _, key := range path {
		m, ok := asMap(current)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func toPreviewBars(values []float64, categories []string) []opts.BarData {
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Name: categoryAt(categories, i), Value: previewValue(v)}
	}
	return data
}

func toPreviewLine(values []float64, categories []string) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Name: categoryAt(categories, i), Value: previewValue(v)}
	}
	return data
}

func categoryAt(categories []string, i int) string {
	if i < len(categories) {
		return categories[i]
	}
	return ""
}

// previewValue maps null points to "-", which ECharts draws as a gap.
func previewValue(v float64) any {
	if math.IsNaN(v) {
		return "-"
	}
	return v
}
