package heatmap

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/scenescope/scenescope/internal/feed"
	"github.com/scenescope/scenescope/internal/viewer"
)

// hueScale maps a normalized heat value to a hue fraction: 0 stays red,
// 1 lands at ~120 degrees (green). Saturation and lightness are fixed.
const (
	hueScale   = 0.33
	saturation = 1.0
	lightness  = 0.5
)

// HeatColor converts a heat value in [0,1] to its ramp color.
func HeatColor(heat float64) colorful.Color {
	if heat < 0 {
		heat = 0
	}
	if heat > 1 {
		heat = 1
	}
	return colorful.Hsl(heat*hueScale*360, saturation, lightness)
}

// ApplyColors paints one feed item set onto the viewer as theming overrides
// with the given intensity as alpha, then triggers a single redraw for the
// whole batch.
func ApplyColors(v *viewer.Viewer, items []feed.Item, intensity float64) {
	for _, it := range items {
		it = it.Clamp()
		v.SetThemingColor(it.TargetID, viewer.ThemingColor{
			Color: HeatColor(it.Heat),
			Alpha: intensity,
		})
	}
	v.Invalidate()
}
