package sift

import (
	"math"

	"asift/internal/keypoint"
)

const (
	descWidth       = 4 // spatial bins per side
	descOrientBins  = 8
	descMagnify     = 3.0 // histogram cell width in keypoint scales
	descClip        = 0.2
	descIntScale    = 512.0
	descMaxRadiusPx = 1 << 12
)

// Plane is a single-channel float image, row-major, values nominally in [0, 255].
type Plane struct {
	Width, Height int
	Pix           []float32
}

func (p Plane) at(x, y int) float64 {
	return float64(p.Pix[y*p.Width+x])
}

// Describe computes a 128-value gradient histogram descriptor for kp on p:
// a 4x4 grid of 8-bin orientation histograms aligned with kp.Orientation,
// Gaussian weighted, trilinearly interpolated, normalized and clipped.
// kp is in p's coordinates. A featureless neighbourhood yields all zeros.
func Describe(p Plane, kp keypoint.Keypoint) []byte {
	hist := make([]float64, descWidth*descWidth*descOrientBins)

	cellWidth := math.Max(descMagnify*kp.Scale, 1)
	radius := int(math.Round(cellWidth * math.Sqrt2 * (descWidth + 1) * 0.5))
	if radius > descMaxRadiusPx {
		radius = descMaxRadiusPx
	}
	cos := math.Cos(kp.Orientation) / cellWidth
	sin := math.Sin(kp.Orientation) / cellWidth
	x0, y0 := int(math.Round(kp.X)), int(math.Round(kp.Y))
	binsPerRad := descOrientBins / (2 * math.Pi)
	expScale := -1 / (0.5 * descWidth * descWidth)

	for i := -radius; i <= radius; i++ {
		y := y0 + i
		if y <= 0 || y >= p.Height-1 {
			continue
		}
		for j := -radius; j <= radius; j++ {
			x := x0 + j
			if x <= 0 || x >= p.Width-1 {
				continue
			}
			// sample offset in the keypoint frame, in cells
			c := float64(j)*cos + float64(i)*sin
			r := -float64(j)*sin + float64(i)*cos
			rbin := r + descWidth/2 - 0.5
			cbin := c + descWidth/2 - 0.5
			if rbin <= -1 || rbin >= descWidth || cbin <= -1 || cbin >= descWidth {
				continue
			}

			dx := p.at(x+1, y) - p.at(x-1, y)
			dy := p.at(x, y+1) - p.at(x, y-1)
			mag := math.Hypot(dx, dy) * math.Exp((c*c+r*r)*expScale)
			if mag == 0 {
				continue
			}
			obin := keypoint.NormalizeAngle(math.Atan2(dy, dx)-kp.Orientation) * binsPerRad
			accumulate(hist, rbin, cbin, obin, mag)
		}
	}
	return quantize(hist)
}

// accumulate spreads v over the neighbouring spatial and orientation bins.
func accumulate(hist []float64, rbin, cbin, obin, v float64) {
	r0, c0, o0 := math.Floor(rbin), math.Floor(cbin), math.Floor(obin)
	fr, fc, fo := rbin-r0, cbin-c0, obin-o0

	for dr := 0; dr < 2; dr++ {
		r := int(r0) + dr
		if r < 0 || r >= descWidth {
			continue
		}
		vr := v * lerpWeight(fr, dr)
		for dc := 0; dc < 2; dc++ {
			c := int(c0) + dc
			if c < 0 || c >= descWidth {
				continue
			}
			vc := vr * lerpWeight(fc, dc)
			for do := 0; do < 2; do++ {
				o := (int(o0) + do) % descOrientBins
				hist[(r*descWidth+c)*descOrientBins+o] += vc * lerpWeight(fo, do)
			}
		}
	}
}

func lerpWeight(frac float64, upper int) float64 {
	if upper == 1 {
		return frac
	}
	return 1 - frac
}

func quantize(hist []float64) []byte {
	out := make([]byte, len(hist))
	norm := l2(hist)
	if norm == 0 {
		return out
	}
	for i := range hist {
		hist[i] = math.Min(hist[i]/norm, descClip)
	}
	norm = l2(hist)
	for i, v := range hist {
		out[i] = byte(math.Min(math.Round(v/norm*descIntScale), 255))
	}
	return out
}

func l2(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
