package composer

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// AdjustVibrance scales the HSL saturation of a hex color by vibrance percent
// (0 leaves the color unchanged, -100 fully desaturates). Colors that do not
// parse as hex are returned as given.
func AdjustVibrance(hex string, vibrance float64) string {
	if vibrance == 0 || hex == "" {
		return hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	h, s, l := c.Hsl()
	s = math.Max(0, math.Min(1, s*(1+vibrance/100)))
	return colorful.Hsl(h, s, l).Clamped().Hex()
}

// gradientStart is the series color at 0x90 alpha, the top stop of an area fill.
func gradientStart(color string) string {
	return color + "90"
}
