package perception

// ExtractDetection computes the geometric descriptors for one cluster:
// centroid, axis-aligned bounding extents, point count, and mean
// intensity. The class label is left unset; the classifier assigns it.
//
// The cluster's point indices reference the points slice it was extracted
// from (the frame's non-ground points).
func ExtractDetection(frameIndex int, points []Point, cluster Cluster) Detection {
	n := len(cluster.PointIndices)
	if n == 0 {
		return Detection{FrameIndex: frameIndex, Class: ClassUnknown}
	}

	first := points[cluster.PointIndices[0]]
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	minZ, maxZ := first.Z, first.Z

	var sumX, sumY, sumZ, sumIntensity float64
	for _, idx := range cluster.PointIndices {
		p := points[idx]
		sumX += p.X
		sumY += p.Y
		sumZ += p.Z
		sumIntensity += p.Intensity

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
		if p.Z < minZ {
			minZ = p.Z
		}
		if p.Z > maxZ {
			maxZ = p.Z
		}
	}

	fn := float64(n)
	return Detection{
		FrameIndex:    frameIndex,
		CentroidX:     sumX / fn,
		CentroidY:     sumY / fn,
		CentroidZ:     sumZ / fn,
		Length:        maxX - minX,
		Width:         maxY - minY,
		Height:        maxZ - minZ,
		PointsCount:   n,
		IntensityMean: sumIntensity / fn,
		Class:         ClassUnknown,
	}
}
