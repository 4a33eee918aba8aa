package keypoint

import (
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// csvRow is one exported keypoint. Descriptors are not exported to CSV.
type csvRow struct {
	Index       int     `csv:"simulation"`
	Tilt        float64 `csv:"tilt"`
	Theta       float64 `csv:"theta"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Scale       float64 `csv:"scale"`
	Orientation float64 `csv:"orientation"`
}

// WriteCSV writes tagged keypoints as CSV with a header row.
func WriteCSV(w io.Writer, kps []SimulationKeypoint) error {
	rows := make([]csvRow, len(kps))
	for i, kp := range kps {
		rows[i] = csvRow{
			Index:       kp.Index,
			Tilt:        kp.Params.Tilt,
			Theta:       kp.Params.Theta,
			X:           kp.X,
			Y:           kp.Y,
			Scale:       kp.Scale,
			Orientation: kp.Orientation,
		}
	}

	b, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal keypoints: %w", err)
	}
	_, err = w.Write(b)
	return err
}
