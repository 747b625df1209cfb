package composer

import (
	"encoding/json"
	"math"
	"strconv"
)

// ChartOptions is a fully-resolved chart option tree as handed over by the
// rendering surface. Axes may be a single object or a list of objects.
type ChartOptions map[string]any

// BeforeRenderHook receives the option tree before every paint and returns the
// tree to render.
type BeforeRenderHook func(ChartOptions) ChartOptions

// Clone returns a deep copy of the tree.
func (o ChartOptions) Clone() ChartOptions {
	if o == nil {
		return ChartOptions{}
	}
	return ChartOptions(cloneMap(o))
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case ChartOptions:
		return cloneMap(val)
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneMap(item)
		}
		return out
	case []float64:
		return append([]float64(nil), val...)
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Section returns the object stored under key, creating it when absent or
// when the current value is not an object.
func (o ChartOptions) Section(key string) map[string]any {
	if m, ok := asMap(o[key]); ok {
		o[key] = m
		return m
	}
	m := map[string]any{}
	o[key] = m
	return m
}

// Series returns the series entries. The maps are shared with the tree.
func (o ChartOptions) Series() []map[string]any {
	return mapList(o["series"])
}

// Axes returns every axis object under key ("xAxis"/"yAxis"), whether the
// tree stores a single object or a list.
func (o ChartOptions) Axes(key string) []map[string]any {
	if m, ok := asMap(o[key]); ok {
		o[key] = m
		return []map[string]any{m}
	}
	return mapList(o[key])
}

// AxisList returns the axis list under key padded to at least n objects. It
// reports false, leaving the tree untouched, when the axis is not a list.
func (o ChartOptions) AxisList(key string, n int) ([]map[string]any, bool) {
	var items []any
	switch val := o[key].(type) {
	case []any:
		items = val
	case []map[string]any:
		items = make([]any, len(val))
		for i, m := range val {
			items[i] = m
		}
	default:
		return nil, false
	}
	out := make([]map[string]any, 0, max(n, len(items)))
	normalized := make([]any, 0, cap(out))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			m = map[string]any{}
		}
		out = append(out, m)
		normalized = append(normalized, m)
	}
	for len(out) < n {
		m := map[string]any{}
		out = append(out, m)
		normalized = append(normalized, m)
	}
	o[key] = normalized
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case ChartOptions:
		return map[string]any(val), true
	default:
		return nil, false
	}
}

func mapList(v any) []map[string]any {
	switch val := v.(type) {
	case []map[string]any:
		return val
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if m, ok := asMap(item); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// seriesValues extracts the y value of every point; null or non-numeric
// points become NaN.
func seriesValues(series map[string]any) []float64 {
	var points []any
	switch data := series["data"].(type) {
	case []any:
		points = data
	case []float64:
		out := append([]float64(nil), data...)
		return out
	case []int:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out
	case []map[string]any:
		points = make([]any, len(data))
		for i, m := range data {
			points[i] = m
		}
	default:
		return nil
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = pointValue(p)
	}
	return out
}

func pointValue(p any) float64 {
	if m, ok := asMap(p); ok {
		p = m["y"]
	}
	if f, ok := numberValue(p); ok {
		return f
	}
	return math.NaN()
}

func numberValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func float64Value(v any) float64 {
	switch val := v.(type) {
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		return 0
	default:
		f, _ := numberValue(v)
		return f
	}
}

// mergeInto deep-merges src onto dst. Nested objects merge key by key; an
// object merged onto a list of objects is applied to every element; any
// other value replaces the destination.
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := asMap(value)
		if !srcIsMap {
			dst[key] = cloneValue(value)
			continue
		}
		if dstMap, ok := asMap(dst[key]); ok {
			mergeInto(dstMap, srcMap)
			continue
		}
		if list := mapList(dst[key]); list != nil {
			for _, item := range list {
				mergeInto(item, srcMap)
			}
			continue
		}
		dst[key] = cloneMap(srcMap)
	}
}
