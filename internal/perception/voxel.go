package perception

import "math"

// VoxelGrid downsamples points by collapsing each cubic voxel of side
// leafSize (metres) to its centroid, preserving spatial structure while
// bounding DBSCAN input size on dense frames. A leafSize <= 0 returns the
// input unchanged.
//
// Output order follows first-appearance order of each voxel, so the
// result is deterministic for a fixed input ordering.
func VoxelGrid(points []Point, leafSize float64) []Point {
	if leafSize <= 0 || len(points) == 0 {
		return points
	}

	type accum struct {
		sumX, sumY, sumZ, sumIntensity float64
		count                          int
	}

	voxels := make(map[cellKey]*accum, len(points)/EstimatedPointsPerCell+1)
	order := make([]cellKey, 0, len(points)/EstimatedPointsPerCell+1)

	for _, p := range points {
		key := cellKey{
			X: int64(math.Floor(p.X / leafSize)),
			Y: int64(math.Floor(p.Y / leafSize)),
			Z: int64(math.Floor(p.Z / leafSize)),
		}
		a, ok := voxels[key]
		if !ok {
			a = &accum{}
			voxels[key] = a
			order = append(order, key)
		}
		a.sumX += p.X
		a.sumY += p.Y
		a.sumZ += p.Z
		a.sumIntensity += p.Intensity
		a.count++
	}

	out := make([]Point, 0, len(order))
	for _, key := range order {
		a := voxels[key]
		n := float64(a.count)
		out = append(out, Point{
			X:         a.sumX / n,
			Y:         a.sumY / n,
			Z:         a.sumZ / n,
			Intensity: a.sumIntensity / n,
		})
	}
	return out
}
