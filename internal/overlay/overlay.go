// Package overlay draws detected keypoints over their source image.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"asift/internal/imageio"
	"asift/internal/keypoint"
	"asift/pkg/colorutil"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls rendering.
type Options struct {
	// MaxEdge bounds the longer output edge in pixels; 0 keeps the input size.
	MaxEdge int
	// Simulations is the sweep length, used to size the palette.
	Simulations int
	// Dim blends the background towards black, 0..1.
	Dim float64
	// Caption is drawn in the top-left corner when non-empty.
	Caption string
}

// DefaultOptions returns the CLI defaults.
func DefaultOptions() Options {
	return Options{MaxEdge: 2048, Dim: 0.35}
}

// Render draws each keypoint as a circle of radius proportional to its scale
// with a tick along its orientation, coloured by simulation index.
func Render(img image.Image, kps []keypoint.SimulationKeypoint, opts Options) *image.RGBA {
	scaled, f := imageio.Resize(img, opts.MaxEdge)
	out := imageio.ToRGBA(scaled)
	if image.Image(out) == img {
		// never draw into the caller's image
		out = cloneRGBA(out)
	}
	if opts.Dim > 0 {
		dim(out, opts.Dim)
	}

	n := opts.Simulations
	for _, kp := range kps {
		if kp.Index+1 > n {
			n = kp.Index + 1
		}
	}
	palette := colorutil.Palette(n)

	for _, kp := range kps {
		c := colorutil.ForIndex(palette, kp.Index)
		cx := int(math.Round((kp.X + 0.5) * f))
		cy := int(math.Round((kp.Y + 0.5) * f))
		radius := int(math.Round(kp.Scale * 3 * f))
		if radius < 2 {
			radius = 2
		}
		drawCircle(out, cx, cy, radius, c)
		tx := cx + int(math.Round(float64(radius)*math.Cos(kp.Orientation)))
		ty := cy + int(math.Round(float64(radius)*math.Sin(kp.Orientation)))
		drawLine(out, cx, cy, tx, ty, c)
	}

	if opts.Caption != "" {
		drawText(out, basicfont.Face7x13, opts.Caption, 6, 16, colorutil.Yellow)
	}
	return out
}

// Save encodes img by file extension: .png, .jpg/.jpeg or .webp.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return fmt.Errorf("overlay: unsupported output format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}

	switch ext {
	case ".png":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("overlay: encode %s: %w", path, err)
	}
	return f.Close()
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func dim(img *image.RGBA, amount float64) {
	keep := 1 - math.Max(0, math.Min(1, amount))
	for i := 0; i+3 < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * keep)
		img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * keep)
		img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * keep)
	}
}

// drawText draws a string with its baseline at (x, y).
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCircle draws a circle outline using midpoint algorithm.
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	x := radius
	y := 0
	err := 0

	for x >= y {
		img.SetRGBA(cx+x, cy+y, c)
		img.SetRGBA(cx+y, cy+x, c)
		img.SetRGBA(cx-y, cy+x, c)
		img.SetRGBA(cx-x, cy+y, c)
		img.SetRGBA(cx-x, cy-y, c)
		img.SetRGBA(cx-y, cy-x, c)
		img.SetRGBA(cx+y, cy-x, c)
		img.SetRGBA(cx+x, cy-y, c)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
