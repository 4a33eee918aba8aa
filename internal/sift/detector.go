//go:build !purego

package sift

import (
	"fmt"
	"image"
	"math"

	"asift/internal/keypoint"

	"gocv.io/x/gocv"
)

// Detector finds SIFT keypoints and descriptors on the luminance of an image.
// Each call uses its own OpenCV detector, so a Detector may be shared by
// concurrent simulations.
type Detector struct {
	opts Options
}

// NewDetector validates opts and returns a gray detector.
func NewDetector(opts Options) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{opts: opts}, nil
}

// Options returns the detector options.
func (d *Detector) Options() Options { return d.opts }

// Detect returns the keypoints of m with 128-value descriptors.
func (d *Detector) Detect(m gocv.Mat) ([]keypoint.Keypoint, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	gray, err := toGray(m)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	work, factor := upsample(gray, d.opts.DoubleInitialImage)
	defer work.Close()

	s := gocv.NewSIFT()
	defer s.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := s.DetectAndCompute(work, mask)
	defer desc.Close()
	if len(kps) > 0 && (desc.Rows() != len(kps) || desc.Cols() != DescriptorLength) {
		return nil, fmt.Errorf("unexpected descriptor matrix %dx%d for %d keypoints",
			desc.Rows(), desc.Cols(), len(kps))
	}

	keep := d.opts.Select(responses(kps))
	out := make([]keypoint.Keypoint, 0, len(keep))
	for _, i := range keep {
		kp := fromCV(kps[i], factor)
		kp.Descriptor = descriptorRow(desc, i)
		out = append(out, kp)
	}
	return out, nil
}

// ColourDetector finds keypoints on luminance and describes each one on
// every colour channel, giving a 3x128-value descriptor in R, G, B order.
// Single-channel input yields plain 128-value descriptors.
type ColourDetector struct {
	opts Options
}

// NewColourDetector validates opts and returns a colour detector.
func NewColourDetector(opts Options) (*ColourDetector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &ColourDetector{opts: opts}, nil
}

// Options returns the detector options.
func (d *ColourDetector) Options() Options { return d.opts }

// Detect returns the keypoints of m with per-channel descriptors.
func (d *ColourDetector) Detect(m gocv.Mat) ([]keypoint.Keypoint, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	work, factor := upsample(m, d.opts.DoubleInitialImage)
	defer work.Close()

	gray, err := toGray(work)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	planes, err := colourPlanes(work)
	if err != nil {
		return nil, err
	}

	s := gocv.NewSIFT()
	defer s.Close()
	kps := s.Detect(gray)

	keep := d.opts.Select(responses(kps))
	out := make([]keypoint.Keypoint, 0, len(keep))
	for _, i := range keep {
		local := fromCV(kps[i], 1)
		desc := make([]byte, 0, DescriptorLength*len(planes))
		for _, p := range planes {
			desc = append(desc, Describe(p, local)...)
		}

		kp := fromCV(kps[i], factor)
		kp.Descriptor = desc
		out = append(out, kp)
	}
	return out, nil
}

func toGray(m gocv.Mat) (gocv.Mat, error) {
	var code gocv.ColorConversionCode
	switch m.Channels() {
	case 1:
		return m.Clone(), nil
	case 3:
		code = gocv.ColorBGRToGray
	case 4:
		code = gocv.ColorBGRAToGray
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", m.Channels())
	}
	gray := gocv.NewMat()
	gocv.CvtColor(m, &gray, code)
	return gray, nil
}

// upsample returns a copy of m, doubled in size when double is set, and the
// scale factor applied.
func upsample(m gocv.Mat, double bool) (gocv.Mat, float64) {
	if !double {
		return m.Clone(), 1
	}
	dst := gocv.NewMat()
	gocv.Resize(m, &dst, image.Point{}, 2, 2, gocv.InterpolationLinear)
	return dst, 2
}

// colourPlanes splits m into float planes in R, G, B order. Alpha is ignored.
func colourPlanes(m gocv.Mat) ([]Plane, error) {
	channels := gocv.Split(m)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	order := []int{0}
	if len(channels) >= 3 {
		order = []int{2, 1, 0}
	}
	planes := make([]Plane, 0, len(order))
	for _, i := range order {
		p, err := planeFromMat(channels[i])
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		planes = append(planes, p)
	}
	return planes, nil
}

func planeFromMat(m gocv.Mat) (Plane, error) {
	f := gocv.NewMat()
	defer f.Close()
	m.ConvertTo(&f, gocv.MatTypeCV32F)

	data, err := f.DataPtrFloat32()
	if err != nil {
		return Plane{}, err
	}
	pix := make([]float32, len(data))
	copy(pix, data)
	return Plane{Width: f.Cols(), Height: f.Rows(), Pix: pix}, nil
}

func responses(kps []gocv.KeyPoint) []float64 {
	r := make([]float64, len(kps))
	for i, k := range kps {
		r[i] = k.Response
	}
	return r
}

// fromCV converts an OpenCV keypoint found on an image upsampled by factor.
// OpenCV places pixel centres on integer coordinates and reports the
// diameter of the keypoint neighbourhood, twice its scale.
func fromCV(k gocv.KeyPoint, factor float64) keypoint.Keypoint {
	return keypoint.Keypoint{
		X:           (k.X+0.5)/factor - 0.5,
		Y:           (k.Y+0.5)/factor - 0.5,
		Scale:       k.Size / 2 / factor,
		Orientation: keypoint.NormalizeAngle(k.Angle * math.Pi / 180),
	}
}

func descriptorRow(desc gocv.Mat, row int) []byte {
	out := make([]byte, desc.Cols())
	for j := range out {
		v := math.Round(float64(desc.GetFloatAt(row, j)))
		out[j] = byte(math.Max(0, math.Min(v, 255)))
	}
	return out
}
