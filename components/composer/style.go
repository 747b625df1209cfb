package composer

import "fmt"

// GridLineStyle selects which axis grid lines are drawn.
type GridLineStyle string

const (
	GridLinesBoth  GridLineStyle = "both"
	GridLinesXOnly GridLineStyle = "x-only"
	GridLinesYOnly GridLineStyle = "y-only"
	GridLinesDots  GridLineStyle = "dots"
	GridLinesNone  GridLineStyle = "none"
)

// Valid reports whether the style is a known mode.
func (g GridLineStyle) Valid() bool {
	switch g {
	case GridLinesBoth, GridLinesXOnly, GridLinesYOnly, GridLinesDots, GridLinesNone:
		return true
	}
	return false
}

// LegendPosition places the chart legend. The empty value centers it.
type LegendPosition string

const (
	LegendHidden LegendPosition = "hidden"
	LegendTop    LegendPosition = "top"
	LegendBottom LegendPosition = "bottom"
	LegendLeft   LegendPosition = "left"
	LegendRight  LegendPosition = "right"
)

// StyleConfig is the flat, user-edited style of a styled embed.
type StyleConfig struct {
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"background_color,omitempty"`
	Border          bool   `json:"border,omitempty" yaml:"border,omitempty"`
	BorderColor     string `json:"borderColor,omitempty" yaml:"border_color,omitempty"`
	CornerRadius    string `json:"cornerRadius,omitempty" yaml:"corner_radius,omitempty"`
	Shadow          string `json:"shadow,omitempty" yaml:"shadow,omitempty"`
	SpaceAround     string `json:"spaceAround,omitempty" yaml:"space_around,omitempty"`

	HeaderBackgroundColor  string `json:"headerBackgroundColor,omitempty" yaml:"header_background_color,omitempty"`
	HeaderDividerLine      bool   `json:"headerDividerLine,omitempty" yaml:"header_divider_line,omitempty"`
	HeaderDividerLineColor string `json:"headerDividerLineColor,omitempty" yaml:"header_divider_line_color,omitempty"`
	HeaderHidden           bool   `json:"headerHidden,omitempty" yaml:"header_hidden,omitempty"`
	HeaderTitleAlignment   string `json:"headerTitleAlignment,omitempty" yaml:"header_title_alignment,omitempty"`
	HeaderTitleTextColor   string `json:"headerTitleTextColor,omitempty" yaml:"header_title_text_color,omitempty"`

	PaletteColor1 string  `json:"paletteColor1,omitempty" yaml:"palette_color1,omitempty"`
	PaletteColor2 string  `json:"paletteColor2,omitempty" yaml:"palette_color2,omitempty"`
	PaletteColor3 string  `json:"paletteColor3,omitempty" yaml:"palette_color3,omitempty"`
	Vibrance      float64 `json:"vibrance,omitempty" yaml:"vibrance,omitempty"`

	AxisColor      string         `json:"axisColor,omitempty" yaml:"axis_color,omitempty"`
	GridLineStyle  GridLineStyle  `json:"gridLineStyle,omitempty" yaml:"grid_line_style,omitempty"`
	LegendPosition LegendPosition `json:"legendPosition,omitempty" yaml:"legend_position,omitempty"`

	BorderRadius  float64 `json:"borderRadius,omitempty" yaml:"border_radius,omitempty"`
	BarWidth      float64 `json:"barWidth,omitempty" yaml:"bar_width,omitempty"`
	BarOpacity    float64 `json:"barOpacity,omitempty" yaml:"bar_opacity,omitempty"`
	PieOpacity    float64 `json:"pieOpacity,omitempty" yaml:"pie_opacity,omitempty"`
	IsDonut       bool    `json:"isDonut,omitempty" yaml:"is_donut,omitempty"`
	DonutWidth    float64 `json:"donutWidth,omitempty" yaml:"donut_width,omitempty"`
	LineWidth     float64 `json:"lineWidth,omitempty" yaml:"line_width,omitempty"`
	MarkerRadius  float64 `json:"markerRadius,omitempty" yaml:"marker_radius,omitempty"`
	ApplyGradient bool    `json:"applyGradient,omitempty" yaml:"apply_gradient,omitempty"`

	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// DefaultStyleConfig is the starting point of the style editor.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		BackgroundColor:      "transparent",
		BorderColor:          "#E5E7EB",
		CornerRadius:         "Medium",
		Shadow:               "Light",
		SpaceAround:          "Medium",
		HeaderTitleAlignment: "Left",
		PaletteColor1:        "#4486F8",
		PaletteColor2:        "#26B26F",
		PaletteColor3:        "#FDD459",
		AxisColor:            "#707073",
		GridLineStyle:        GridLinesBoth,
		LegendPosition:       LegendBottom,
		BorderRadius:         2,
		BarOpacity:           1,
		PieOpacity:           1,
		DonutWidth:           60,
		LineWidth:            2,
		MarkerRadius:         4,
		Width:                600,
		Height:               400,
	}
}

// Palette returns the configured base colors with vibrance applied.
func (c StyleConfig) Palette() []string {
	palette := make([]string, 0, 3)
	for _, base := range []string{c.PaletteColor1, c.PaletteColor2, c.PaletteColor3} {
		if base == "" {
			continue
		}
		palette = append(palette, AdjustVibrance(base, c.Vibrance))
	}
	return palette
}

// Padding is a four-sided inset in pixels.
type Padding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// HeaderStyle styles the widget title bar.
type HeaderStyle struct {
	BackgroundColor  string   `json:"backgroundColor,omitempty"`
	DividerLine      bool     `json:"dividerLine"`
	DividerLineColor string   `json:"dividerLineColor,omitempty"`
	Hidden           bool     `json:"hidden"`
	TitleAlignment   string   `json:"titleAlignment,omitempty"`
	TitleTextColor   string   `json:"titleTextColor,omitempty"`
	Height           int      `json:"height,omitempty"`
	Padding          *Padding `json:"padding,omitempty"`
	MenuButtonColor  string   `json:"menuButtonColor,omitempty"`
}

// StyleOptions is the widget chrome understood by the rendering surface.
type StyleOptions struct {
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Border          bool        `json:"border"`
	BorderColor     string      `json:"borderColor,omitempty"`
	CornerRadius    string      `json:"cornerRadius,omitempty"`
	Shadow          string      `json:"shadow,omitempty"`
	SpaceAround     string      `json:"spaceAround,omitempty"`
	Padding         *Padding    `json:"padding,omitempty"`
	Header          HeaderStyle `json:"header"`
}

// StyleOptionsFromConfig maps a user style onto surface style options.
func StyleOptionsFromConfig(cfg StyleConfig) StyleOptions {
	return StyleOptions{
		BackgroundColor: cfg.BackgroundColor,
		Border:          cfg.Border,
		BorderColor:     cfg.BorderColor,
		CornerRadius:    cfg.CornerRadius,
		Shadow:          cfg.Shadow,
		SpaceAround:     cfg.SpaceAround,
		Header: HeaderStyle{
			BackgroundColor:  cfg.HeaderBackgroundColor,
			DividerLine:      cfg.HeaderDividerLine,
			DividerLineColor: cfg.HeaderDividerLineColor,
			Hidden:           cfg.HeaderHidden,
			TitleAlignment:   cfg.HeaderTitleAlignment,
			TitleTextColor:   cfg.HeaderTitleTextColor,
		},
	}
}

// DefaultStyleOptions is the chrome applied to catalog widgets.
func DefaultStyleOptions(theme ThemeMode) StyleOptions {
	dark := theme == ThemeDark
	pick := func(darkValue, lightValue string) string {
		if dark {
			return darkValue
		}
		return lightValue
	}
	return StyleOptions{
		BackgroundColor: "transparent",
		Padding:         &Padding{},
		Header: HeaderStyle{
			BackgroundColor:  pick("#1F2838", "#FFFFFF"),
			TitleTextColor:   pick("#FFFFFF", "#111827"),
			DividerLine:      true,
			DividerLineColor: pick("transparent", "#E5E7EB"),
			Height:           48,
			Padding:          &Padding{Right: 16, Left: 16},
			TitleAlignment:   "Left",
			MenuButtonColor:  pick("#FFFFFF", "#6B7280"),
		},
	}
}

// SurfaceTheme returns the rendering surface theme for a mode.
func SurfaceTheme(theme ThemeMode) map[string]any {
	if theme != ThemeDark {
		return map[string]any{
			"chart": map[string]any{"backgroundColor": "transparent"},
		}
	}
	grid := func(bg string) map[string]any {
		return map[string]any{"backgroundColor": bg, "textColor": "#ffffff", "borderColor": "#444446"}
	}
	alternating := map[string]any{"backgroundColor": "#3a3a3c", "textColor": "#ffffff"}
	return map[string]any{
		"table": map[string]any{
			"header":          grid("#3c3c3e"),
			"cell":            grid("#2c2c2e"),
			"alternatingRows": alternating,
		},
		"pivot": map[string]any{
			"header":          grid("#3c3c3e"),
			"rowHeader":       grid("#2c2c2e"),
			"cell":            grid("#2c2c2e"),
			"alternatingRows": cloneMap(alternating),
		},
		"chart": map[string]any{
			"backgroundColor": "transparent",
			"plotBorderColor": "#606063",
			"textColor":       "#E0E0E3",
		},
		"palette": map[string]any{
			"variantColors": []any{"#f32958", "#fdd459", "#26b26f", "#4486f8"},
		},
		"typography": map[string]any{
			"fontFamily":         "Inter, sans-serif",
			"primaryTextColor":   "#FFFFFF",
			"secondaryTextColor": "#8E8E93",
		},
	}
}

// StyledBeforeRender returns the pre-render hook for a styled embed. The hook
// is pure: it works on a copy of the tree and reads nothing but cfg.
func StyledBeforeRender(cfg StyleConfig) BeforeRenderHook {
	palette := cfg.Palette()
	return func(in ChartOptions) ChartOptions {
		out := in.Clone()
		out.Section("chart")["backgroundColor"] = "transparent"

		if len(palette) > 0 {
			colors := make([]any, len(palette))
			for i, c := range palette {
				colors[i] = c
			}
			out["colors"] = colors
			for i, s := range out.Series() {
				s["color"] = palette[i%len(palette)]
			}
		}

		for _, key := range []string{"xAxis", "yAxis"} {
			for _, axis := range out.Axes(key) {
				axis["gridLineColor"] = cfg.AxisColor
				axis["lineColor"] = cfg.AxisColor
				axis["tickColor"] = cfg.AxisColor
			}
		}
		applyStyledGrid(out, cfg.GridLineStyle)
		applyLegend(out.Section("legend"), cfg.LegendPosition)
		applyPlotOptions(out.Section("plotOptions"), cfg)

		if cfg.ApplyGradient {
			for _, s := range out.Series() {
				color, ok := s["color"].(string)
				if s["type"] != "area" || !ok {
					continue
				}
				s["fillColor"] = map[string]any{
					"linearGradient": map[string]any{"x1": 0, "x2": 0, "y1": 0, "y2": 1},
					"stops":          []any{[]any{0, gradientStart(color)}, []any{1, "#FFFFFF00"}},
				}
			}
		}
		return out
	}
}

func applyStyledGrid(opts ChartOptions, mode GridLineStyle) {
	set := func(key string, width int, dash string) {
		for _, axis := range opts.Axes(key) {
			axis["gridLineWidth"] = width
			if dash != "" {
				axis["gridLineDashStyle"] = dash
			}
		}
	}
	switch mode {
	case GridLinesBoth:
		set("xAxis", 1, "Solid")
		set("yAxis", 1, "Solid")
	case GridLinesYOnly:
		set("xAxis", 0, "")
		set("yAxis", 1, "Solid")
	case GridLinesXOnly:
		set("xAxis", 1, "Solid")
		set("yAxis", 0, "")
	case GridLinesDots:
		set("xAxis", 1, "Dot")
		set("yAxis", 1, "Dot")
	case GridLinesNone:
		set("xAxis", 0, "")
		set("yAxis", 0, "")
	}
}

func applyLegend(legend map[string]any, pos LegendPosition) {
	if pos == LegendHidden {
		legend["enabled"] = false
		return
	}
	legend["enabled"] = true
	switch pos {
	case LegendLeft, LegendRight:
		legend["align"] = string(pos)
		legend["verticalAlign"] = "middle"
		legend["layout"] = "vertical"
	case LegendTop, LegendBottom:
		legend["align"] = "center"
		legend["verticalAlign"] = string(pos)
		legend["layout"] = "horizontal"
	default:
		legend["align"] = "center"
		legend["verticalAlign"] = "middle"
		legend["layout"] = "horizontal"
	}
}

func applyPlotOptions(plot map[string]any, cfg StyleConfig) {
	section := func(key string) map[string]any {
		if m, ok := asMap(plot[key]); ok {
			return m
		}
		m := map[string]any{}
		plot[key] = m
		return m
	}
	series := section("series")
	series["borderRadius"] = cfg.BorderRadius
	if cfg.BarWidth > 0 {
		series["pointWidth"] = cfg.BarWidth
	}
	series["opacity"] = cfg.BarOpacity
	series["borderColor"] = cfg.BorderColor
	series["borderWidth"] = 1

	pie := section("pie")
	pie["innerSize"] = "0%"
	if cfg.IsDonut {
		pie["innerSize"] = fmt.Sprintf("%g%%", cfg.DonutWidth)
	}
	pie["opacity"] = cfg.PieOpacity
	pie["borderColor"] = cfg.BorderColor
	pie["borderWidth"] = 2

	for _, key := range []string{"line", "area"} {
		opts := section(key)
		opts["lineWidth"] = cfg.LineWidth
		marker, ok := asMap(opts["marker"])
		if !ok {
			marker = map[string]any{}
		}
		marker["radius"] = cfg.MarkerRadius
		opts["marker"] = marker
	}
}
