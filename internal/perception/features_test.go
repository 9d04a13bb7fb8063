package perception

import (
	"math"
	"testing"
)

func TestExtractDetection(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0, Z: 0, Intensity: 10},
		{X: 2, Y: 0, Z: 0, Intensity: 20},
		{X: 0, Y: 4, Z: 0, Intensity: 30},
		{X: 0, Y: 0, Z: 1, Intensity: 40},
		{X: 100, Y: 100, Z: 100, Intensity: 0}, // not in the cluster
	}
	cluster := Cluster{PointIndices: []int{0, 1, 2, 3}}

	d := ExtractDetection(7, points, cluster)
	if d.FrameIndex != 7 {
		t.Fatalf("frame index: %d", d.FrameIndex)
	}
	if d.PointsCount != 4 {
		t.Fatalf("points count: %d", d.PointsCount)
	}
	if d.Length != 2 || d.Width != 4 || d.Height != 1 {
		t.Fatalf("extents: %f x %f x %f", d.Length, d.Width, d.Height)
	}
	if math.Abs(d.CentroidX-0.5) > 1e-12 || math.Abs(d.CentroidY-1.0) > 1e-12 || math.Abs(d.CentroidZ-0.25) > 1e-12 {
		t.Fatalf("centroid: (%f, %f, %f)", d.CentroidX, d.CentroidY, d.CentroidZ)
	}
	if math.Abs(d.IntensityMean-25) > 1e-12 {
		t.Fatalf("intensity mean: %f", d.IntensityMean)
	}
	if d.Footprint() != 8 {
		t.Fatalf("footprint: %f", d.Footprint())
	}
	if d.Class != ClassUnknown {
		t.Fatalf("expected unclassified detection, got %q", d.Class)
	}
}

func TestExtractDetection_EmptyCluster(t *testing.T) {
	d := ExtractDetection(1, nil, Cluster{})
	if d.PointsCount != 0 || d.Class != ClassUnknown {
		t.Fatalf("unexpected detection from empty cluster: %+v", d)
	}
}

func TestPointFinite(t *testing.T) {
	if !(Point{X: 1, Y: 2, Z: 3, Intensity: 4}).Finite() {
		t.Fatal("ordinary point reported non-finite")
	}
	if (Point{X: math.NaN()}).Finite() {
		t.Fatal("NaN coordinate reported finite")
	}
	if (Point{Z: math.Inf(1)}).Finite() {
		t.Fatal("infinite coordinate reported finite")
	}
	if (Point{Intensity: math.Inf(-1)}).Finite() {
		t.Fatal("infinite intensity reported finite")
	}
}

func TestDetectionFiniteCentroid(t *testing.T) {
	if !(Detection{CentroidX: 1}).FiniteCentroid() {
		t.Fatal("finite centroid rejected")
	}
	if (Detection{CentroidY: math.NaN()}).FiniteCentroid() {
		t.Fatal("NaN centroid accepted")
	}
}
