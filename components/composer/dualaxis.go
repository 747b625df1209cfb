package composer

import "math"

// AxisRange is a forced min/max pair for one y axis.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DualAxisScale is the outcome of the dual-axis computation. Primary always
// carries the stacked extremes and Secondary.Max the secondary maximum;
// Secondary.Min is only derived when Applied is true.
type DualAxisScale struct {
	Primary   AxisRange `json:"primary"`
	Secondary AxisRange `json:"secondary"`
	Applied   bool      `json:"applied"`
}

// ComputeDualAxisScale aligns the zero line of a secondary (line) axis with a
// primary stacked-bar axis. Each inner slice is one series; NaN marks a null
// point. The ranges are only forced when the primary stacks span both signs
// and the secondary series has a positive maximum.
func ComputeDualAxisScale(primary, secondary [][]float64) DualAxisScale {
	secondaryMax := 0.0
	for _, series := range secondary {
		for _, v := range series {
			if !math.IsNaN(v) && v > secondaryMax {
				secondaryMax = v
			}
		}
	}

	var positive, negative []float64
	for _, series := range primary {
		for i, v := range series {
			for len(positive) <= i {
				positive = append(positive, 0)
				negative = append(negative, 0)
			}
			switch {
			case math.IsNaN(v):
			case v > 0:
				positive[i] += v
			case v < 0:
				negative[i] += v
			}
		}
	}
	primaryMin, primaryMax := 0.0, 0.0
	for i := range positive {
		primaryMax = math.Max(primaryMax, positive[i])
		primaryMin = math.Min(primaryMin, negative[i])
	}

	scale := DualAxisScale{
		Primary:   AxisRange{Min: primaryMin, Max: primaryMax},
		Secondary: AxisRange{Max: secondaryMax},
	}
	if primaryMin < 0 && primaryMax > 0 && secondaryMax > 0 {
		scale.Secondary.Min = primaryMin * (secondaryMax / primaryMax)
		scale.Applied = true
	}
	return scale
}

// ApplyDualAxisScale writes the forced ranges onto yAxis[0] and yAxis[1] and
// disables tick snapping. Charts with a single y axis object keep their
// default scaling.
func ApplyDualAxisScale(opts ChartOptions, scale DualAxisScale) {
	axes, ok := opts.AxisList("yAxis", 2)
	if !ok || !scale.Applied {
		return
	}
	setRange(axes[0], scale.Primary)
	setRange(axes[1], scale.Secondary)
}

func setRange(axis map[string]any, r AxisRange) {
	axis["min"] = r.Min
	axis["max"] = r.Max
	axis["startOnTick"] = false
	axis["endOnTick"] = false
}

// DualAxisConfig parameterizes the combination-chart transform.
type DualAxisConfig struct {
	SecondarySeries string
	LegendOrder     []string
	Formatter       string
}

// DefaultDualAxisConfig matches the "LTD trial spend" combination chart.
func DefaultDualAxisConfig() DualAxisConfig {
	return DualAxisConfig{
		SecondarySeries: "Patient count",
		LegendOrder:     []string{"Patient count", "Direct Fees", "Pass-throughs", "Investigator fees", "OCCs"},
		Formatter:       FormatterUnifiedDualAxis,
	}
}

// DualAxisTransform orders the legend, pins the secondary series above the
// bars, synchronizes both y axes and finally applies theming.
func DualAxisTransform(cfg DualAxisConfig) Transform {
	return func(in ChartOptions, env RenderEnv) ChartOptions {
		out := in.Clone()
		prepareCombinationChart(out)
		if _, ok := out["series"]; ok {
			series := out.Series()
			assignLegendOrder(series, cfg.LegendOrder)
			var primary, secondary [][]float64
			matched := false
			for _, s := range series {
				if stringValue(s["name"], "") != cfg.SecondarySeries {
					primary = append(primary, seriesValues(s))
					continue
				}
				s["zIndex"] = 5
				if !matched {
					secondary = append(secondary, seriesValues(s))
					matched = true
				}
			}
			ApplyDualAxisScale(out, ComputeDualAxisScale(primary, secondary))
		}
		return applyTheming(out, cfg.Formatter, env)
	}
}

// ForecastConfig parameterizes the actual-vs-forecast transform.
type ForecastConfig struct {
	LineSeries  string
	LegendOrder []string
	Formatter   string
}

// DefaultForecastConfig matches the "Actual + forecast" chart.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		LineSeries: "Enrollment",
		LegendOrder: []string{
			"Enrollment",
			"Direct fees - A", "Pass-throughs - A", "Investigator - A", "OCC - A",
			"Direct fees - F", "Pass-throughs - F", "Investigator - F", "OCC - F",
		},
		Formatter: FormatterUnifiedDualAxis,
	}
}

// ForecastTransform orders the legend and draws the line series above the
// stacked actual/forecast columns.
func ForecastTransform(cfg ForecastConfig) Transform {
	return func(in ChartOptions, env RenderEnv) ChartOptions {
		out := in.Clone()
		prepareCombinationChart(out)
		series := out.Series()
		assignLegendOrder(series, cfg.LegendOrder)
		for _, s := range series {
			if stringValue(s["name"], "") == cfg.LineSeries {
				s["type"] = "line"
				s["zIndex"] = 5
			}
		}
		return applyTheming(out, cfg.Formatter, env)
	}
}

func prepareCombinationChart(opts ChartOptions) {
	opts.Section("chart")["alignTicks"] = true
	plot := opts.Section("plotOptions")
	column, ok := asMap(plot["column"])
	if !ok {
		column = map[string]any{}
	}
	column["borderRadius"] = 1
	column["crisp"] = false
	column["groupPadding"] = 0.4
	plot["column"] = column
}

// assignLegendOrder sets legendIndex from the order table; unmatched names get
// len(order) so they sort last in their original relative order.
func assignLegendOrder(series []map[string]any, order []string) {
	index := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	for _, s := range series {
		if i, ok := index[stringValue(s["name"], "")]; ok {
			s["legendIndex"] = i
		} else {
			s["legendIndex"] = len(order)
		}
	}
}
