package perception

import "math"

// Point is a single LiDAR return in the sensor frame.
// Coordinates are metres; Intensity is the raw reflectivity value.
type Point struct {
	X, Y, Z   float64
	Intensity float64
}

// Finite reports whether all of the point's fields hold finite values.
// Non-finite points are data-quality faults and are rejected at the
// loading boundary.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0) &&
		!math.IsNaN(p.Intensity) && !math.IsInf(p.Intensity, 0)
}

// Frame is one sweep of the sensor: a sequence index plus the points
// captured during that sweep. Frames are owned by the pipeline driver for
// their lifetime and discarded after processing.
type Frame struct {
	Index  int
	Points []Point
}

// Cluster is a set of point indices (into the owning frame's non-ground
// point slice) belonging to one spatial group. Clusters exist only
// transiently between the cluster extractor and the classifier.
type Cluster struct {
	PointIndices []int
}

// ClassLabel is the semantic class assigned to a detection.
type ClassLabel string

const (
	ClassCar        ClassLabel = "car"
	ClassPedestrian ClassLabel = "pedestrian"
	ClassCyclist    ClassLabel = "cyclist"
	ClassUnknown    ClassLabel = "unknown"
)

// Detection is one classified cluster within one frame. Detections are
// immutable once built; the tracker and the report sink consume them.
type Detection struct {
	FrameIndex int

	// Centroid (sensor frame, metres)
	CentroidX float64
	CentroidY float64
	CentroidZ float64

	// Axis-aligned bounding extents (metres):
	// Length = x-range, Width = y-range, Height = z-range.
	Length float64
	Width  float64
	Height float64

	PointsCount   int
	IntensityMean float64

	Class ClassLabel
}

// Footprint returns the top-down bounding area (Length × Width) in m².
func (d Detection) Footprint() float64 {
	return d.Length * d.Width
}

// FiniteCentroid reports whether the detection's centroid holds finite
// values. Detections failing this check are rejected before tracking.
func (d Detection) FiniteCentroid() bool {
	return !math.IsNaN(d.CentroidX) && !math.IsInf(d.CentroidX, 0) &&
		!math.IsNaN(d.CentroidY) && !math.IsInf(d.CentroidY, 0) &&
		!math.IsNaN(d.CentroidZ) && !math.IsInf(d.CentroidZ, 0)
}
