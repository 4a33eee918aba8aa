package keypoint

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrFormat is returned when a keypoint file cannot be parsed.
var ErrFormat = errors.New("keypoint: malformed keypoint file")

// valuesPerLine is how many descriptor values share one text line.
const valuesPerLine = 20

// WriteASCII writes keypoints in Lowe's text format:
//
//	<count> <descriptor length>
//	<y> <x> <scale> <orientation>
//	<descriptor values, 20 per line>
//
// All keypoints must carry descriptors of the same length (possibly zero).
func WriteASCII(w io.Writer, kps []Keypoint) error {
	length := 0
	if len(kps) > 0 {
		length = len(kps[0].Descriptor)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(kps), length)
	for i, kp := range kps {
		if len(kp.Descriptor) != length {
			return fmt.Errorf("keypoint %d: descriptor length %d, want %d", i, len(kp.Descriptor), length)
		}
		fmt.Fprintf(bw, "%s %s %s %s\n",
			formatFloat(kp.Y), formatFloat(kp.X), formatFloat(kp.Scale), formatFloat(kp.Orientation))
		for j, v := range kp.Descriptor {
			if j > 0 {
				if j%valuesPerLine == 0 {
					bw.WriteByte('\n')
				} else {
					bw.WriteByte(' ')
				}
			}
			bw.WriteString(strconv.Itoa(int(v)))
		}
		if length > 0 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// ReadASCII parses keypoints written by WriteASCII. Line breaks are not
// significant; values are read as whitespace-separated fields.
func ReadASCII(r io.Reader) ([]Keypoint, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("%w: unexpected end of input reading %s", ErrFormat, what)
		}
		return sc.Text(), nil
	}
	nextInt := func(what string) (int, error) {
		s, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrFormat, what, s)
		}
		return v, nil
	}
	nextFloat := func(what string) (float64, error) {
		s, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrFormat, what, s)
		}
		return v, nil
	}

	count, err := nextInt("count")
	if err != nil {
		return nil, err
	}
	length, err := nextInt("descriptor length")
	if err != nil {
		return nil, err
	}
	if count < 0 || length < 0 || length > maxDescriptorLength {
		return nil, fmt.Errorf("%w: header %d %d", ErrFormat, count, length)
	}

	// the header is untrusted; grow past this as records actually arrive
	kps := make([]Keypoint, 0, min(count, 1<<16))
	for i := 0; i < count; i++ {
		var kp Keypoint
		fields := []struct {
			dst  *float64
			name string
		}{{&kp.Y, "y"}, {&kp.X, "x"}, {&kp.Scale, "scale"}, {&kp.Orientation, "orientation"}}
		for _, f := range fields {
			if *f.dst, err = nextFloat(f.name); err != nil {
				return nil, fmt.Errorf("keypoint %d: %w", i, err)
			}
		}
		if length > 0 {
			kp.Descriptor = make([]byte, length)
			for j := range kp.Descriptor {
				v, err := nextInt("descriptor")
				if err != nil {
					return nil, fmt.Errorf("keypoint %d: %w", i, err)
				}
				if v < 0 || v > 255 {
					return nil, fmt.Errorf("%w: keypoint %d descriptor value %d out of range", ErrFormat, i, v)
				}
				kp.Descriptor[j] = byte(v)
			}
		}
		kps = append(kps, kp)
	}
	return kps, nil
}

// maxDescriptorLength bounds the header's descriptor length.
const maxDescriptorLength = 1 << 12

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
