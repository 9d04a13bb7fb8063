package frameio

import (
	"fmt"
	"os"

	"github.com/seqsense/pcgol/pc"

	"github.com/kerbside-data/object.report/internal/perception"
)

// ReadPCDFrame reads one frame from a PCD file. The x/y/z fields are
// required; intensity is optional and defaults to zero when the file
// carries no intensity field.
//
// Non-finite points are data-quality faults, dropped and counted in the
// returned rejected total.
func ReadPCDFrame(path string, index int) (perception.Frame, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return perception.Frame{Index: index}, 0, fmt.Errorf("open frame file: %w", err)
	}
	defer f.Close()

	cloud, err := pc.Unmarshal(f)
	if err != nil {
		return perception.Frame{Index: index}, 0, fmt.Errorf("read %s: %w", path, err)
	}

	it, err := cloud.Vec3Iterator()
	if err != nil {
		return perception.Frame{Index: index}, 0, fmt.Errorf("%s: no position fields: %w", path, err)
	}

	// Intensity is optional in practice; many converters emit xyz-only
	// clouds.
	intensityIt, intensityErr := cloud.Float32Iterator("intensity")

	frame := perception.Frame{Index: index, Points: make([]perception.Point, 0, cloud.Points)}
	rejected := 0
	for ; it.IsValid(); it.Incr() {
		v := it.Vec3()
		p := perception.Point{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		if intensityErr == nil && intensityIt.IsValid() {
			p.Intensity = float64(intensityIt.Float32())
			intensityIt.Incr()
		}
		if !p.Finite() {
			rejected++
			continue
		}
		frame.Points = append(frame.Points, p)
	}
	return frame, rejected, nil
}
