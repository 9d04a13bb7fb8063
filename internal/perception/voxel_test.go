package perception

import (
	"math"
	"testing"
)

func TestVoxelGrid_CollapsesCellsToCentroids(t *testing.T) {
	points := []Point{
		{X: 0.1, Y: 0.1, Z: 0.1, Intensity: 10},
		{X: 0.3, Y: 0.3, Z: 0.3, Intensity: 30},
		{X: 5.0, Y: 5.0, Z: 5.0, Intensity: 50},
	}

	out := VoxelGrid(points, 1.0)
	if len(out) != 2 {
		t.Fatalf("expected 2 voxels, got %d", len(out))
	}
	if math.Abs(out[0].X-0.2) > 1e-12 || math.Abs(out[0].Intensity-20) > 1e-12 {
		t.Fatalf("first voxel centroid wrong: %+v", out[0])
	}
	if out[1].X != 5.0 {
		t.Fatalf("isolated point must survive unchanged: %+v", out[1])
	}
}

func TestVoxelGrid_DisabledPassthrough(t *testing.T) {
	points := []Point{{X: 1}, {X: 2}}
	out := VoxelGrid(points, 0)
	if len(out) != 2 || out[0].X != 1 || out[1].X != 2 {
		t.Fatalf("leaf size 0 must pass input through: %+v", out)
	}
}

func TestVoxelGrid_DeterministicOrder(t *testing.T) {
	points := []Point{
		{X: 9.5}, {X: 0.5}, {X: 4.5}, {X: 0.6}, {X: 9.6},
	}
	first := VoxelGrid(points, 1.0)
	second := VoxelGrid(points, 1.0)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 voxels, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("voxel order unstable at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	// First-appearance order: the cell of the first input point leads.
	if first[0].X < 9 {
		t.Fatalf("expected first voxel from first input point, got %+v", first[0])
	}
}
