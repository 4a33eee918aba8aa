// Package colorutil provides the colours used to draw keypoint overlays.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors.
var (
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Palette returns n distinct opaque colours with evenly spaced hues at equal
// perceptual lightness. The result depends only on n.
func Palette(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.RGBA, n)
	for i := range out {
		h := 360 * float64(i) / float64(n)
		out[i] = ToRGBA(colorful.Hcl(h, 0.6, 0.7).Clamped())
	}
	return out
}

// ForIndex returns the palette colour for simulation index i, with the
// identity simulation (index 0) always drawn in white.
func ForIndex(palette []color.RGBA, i int) color.RGBA {
	if i == 0 || len(palette) == 0 {
		return White
	}
	return palette[i%len(palette)]
}

// ToRGBA converts a colorful.Color to an opaque color.RGBA.
func ToRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
