package composer

import (
	"fmt"
	"sort"
	"sync"
)

// RenderEnv is the render-time context a pre-render transform is bound to.
type RenderEnv struct {
	Theme     ThemeMode
	GridLines GridLineStyle
}

// Transform rewrites a chart option tree before paint. Implementations must
// not mutate their input.
type Transform func(ChartOptions, RenderEnv) ChartOptions

// TransformFactory builds a transform bound to a tooltip formatter name.
type TransformFactory func(formatter string) Transform

// Built-in transform names.
const (
	TransformThemed         = "themed"
	TransformDualAxis       = "dual-axis"
	TransformActualForecast = "actual-forecast"
)

// Tooltip formatter names understood by the rendering surface.
const (
	FormatterDetailedBudget  = "detailed-budget"
	FormatterUnifiedDualAxis = "unified-dual-axis"
)

type transformEntry struct {
	factory          TransformFactory
	defaultFormatter string
}

// TransformRegistry maps declarative transform/formatter names to code.
type TransformRegistry struct {
	mu         sync.RWMutex
	transforms map[string]transformEntry
	formatters map[string]struct{}
}

// NewTransformRegistry returns a registry holding the built-in transforms.
func NewTransformRegistry() *TransformRegistry {
	reg := &TransformRegistry{
		transforms: map[string]transformEntry{},
		formatters: map[string]struct{}{},
	}
	reg.RegisterFormatter(FormatterDetailedBudget)
	reg.RegisterFormatter(FormatterUnifiedDualAxis)
	_ = reg.Register(TransformThemed, FormatterDetailedBudget, ThemedTransform)
	_ = reg.Register(TransformDualAxis, FormatterUnifiedDualAxis, func(formatter string) Transform {
		cfg := DefaultDualAxisConfig()
		cfg.Formatter = formatter
		return DualAxisTransform(cfg)
	})
	_ = reg.Register(TransformActualForecast, FormatterUnifiedDualAxis, func(formatter string) Transform {
		cfg := DefaultForecastConfig()
		cfg.Formatter = formatter
		return ForecastTransform(cfg)
	})
	return reg
}

// Register adds or replaces a named transform.
func (r *TransformRegistry) Register(name, defaultFormatter string, factory TransformFactory) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrUnknownTransform)
	}
	if factory == nil {
		return fmt.Errorf("%w: %s has no factory", ErrUnknownTransform, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[name] = transformEntry{factory: factory, defaultFormatter: defaultFormatter}
	return nil
}

// RegisterFormatter declares a tooltip formatter name.
func (r *TransformRegistry) RegisterFormatter(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[name] = struct{}{}
}

// Resolve binds a transform name to a formatter. An empty name resolves to no
// transform; an empty formatter picks the transform's default.
func (r *TransformRegistry) Resolve(name, formatter string) (Transform, error) {
	if name == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.transforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, name)
	}
	if formatter == "" {
		formatter = entry.defaultFormatter
	}
	if formatter != "" {
		if _, ok := r.formatters[formatter]; !ok {
			return nil, fmt.Errorf("%w: tooltip formatter %s", ErrUnknownTransform, formatter)
		}
	}
	return entry.factory(formatter), nil
}

// Names lists the registered transform names.
func (r *TransformRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemedTransform applies the shared tooltip, theme palette and grid-line
// treatment used by every plain catalog chart.
func ThemedTransform(formatter string) Transform {
	return func(in ChartOptions, env RenderEnv) ChartOptions {
		return applyTheming(in.Clone(), formatter, env)
	}
}

// applyTheming mutates and returns opts.
func applyTheming(opts ChartOptions, formatter string, env RenderEnv) ChartOptions {
	tooltip := opts.Section("tooltip")
	tooltip["shared"] = true
	tooltip["useHTML"] = true
	if formatter != "" {
		tooltip["formatter"] = formatter
	}
	mergeInto(opts, ChartThemeOptions(env.Theme))

	if chart, ok := asMap(opts["chart"]); ok {
		delete(chart, "plotBackgroundImage")
		delete(chart, "plotBackgroundColor")
	}

	gridColor := "#EAEBEF"
	if env.Theme == ThemeDark {
		gridColor = "#444446"
	}
	setGrid := func(key string, width int, dash string) {
		for _, axis := range opts.Axes(key) {
			axis["gridLineWidth"] = width
			axis["gridLineColor"] = gridColor
			axis["gridLineDashStyle"] = dash
		}
	}
	switch env.GridLines {
	case GridLinesBoth:
		setGrid("xAxis", 1, "Solid")
		setGrid("yAxis", 1, "Solid")
	case GridLinesYOnly:
		setGrid("xAxis", 0, "Solid")
		setGrid("yAxis", 1, "Solid")
	case GridLinesXOnly:
		setGrid("xAxis", 1, "Solid")
		setGrid("yAxis", 0, "Solid")
	case GridLinesDots:
		setGrid("xAxis", 2, "Dot")
		setGrid("yAxis", 2, "Dot")
	case GridLinesNone:
		setGrid("xAxis", 0, "Solid")
		setGrid("yAxis", 0, "Solid")
	}

	opts.Section("chart")["backgroundColor"] = "transparent"
	return opts
}

// ChartThemeOptions returns the chart theme overlay for a mode.
func ChartThemeOptions(theme ThemeMode) ChartOptions {
	if theme != ThemeDark {
		return ChartOptions{
			"tooltip": map[string]any{
				"backgroundColor": "rgba(255, 255, 255, 0.95)",
				"borderColor":     "#EAEBEF",
				"style":           map[string]any{"color": "#1A2B3C"},
			},
		}
	}
	axis := func(gridColor string) map[string]any {
		return map[string]any{
			"gridLineColor": gridColor,
			"labels":        map[string]any{"style": map[string]any{"color": "#E0E0E3"}},
			"lineColor":     "#707073",
			"tickColor":     "#707073",
			"title":         map[string]any{"style": map[string]any{"color": "#A0A0A3"}},
		}
	}
	return ChartOptions{
		"colors":   []any{"#8A8AFF", "#66DEFF", "#A5FF8A", "#BFBFFF", "#FF8A8A", "#FFB58A"},
		"chart":    map[string]any{"backgroundColor": "#2C2C2E"},
		"title":    map[string]any{"style": map[string]any{"color": "#E0E0E3"}},
		"subtitle": map[string]any{"style": map[string]any{"color": "#E0E0E3"}},
		"xAxis":    axis("#707073"),
		"yAxis":    axis("#444446"),
		"tooltip": map[string]any{
			"backgroundColor": "rgba(0, 0, 0, 0.85)",
			"style":           map[string]any{"color": "#F0F0F0"},
			"borderColor":     "#333333",
		},
		"legend": map[string]any{
			"itemStyle":       map[string]any{"color": "#E0E0E3"},
			"itemHoverStyle":  map[string]any{"color": "#FFF"},
			"itemHiddenStyle": map[string]any{"color": "#606063"},
		},
	}
}
