package perception

import (
	"fmt"
	"math"
)

// Constants for clustering configuration.
const (
	// DefaultDBSCANEps is the default neighborhood radius in metres.
	DefaultDBSCANEps = 1.0
	// DefaultDBSCANMinPts is the default minimum neighborhood size for a
	// core point.
	DefaultDBSCANMinPts = 20
	// EstimatedPointsPerCell is used for initial spatial index capacity estimation.
	EstimatedPointsPerCell = 4
)

// DBSCANParams contains parameters for the density clustering algorithm.
type DBSCANParams struct {
	Eps    float64 // Neighborhood radius in metres
	MinPts int     // Minimum neighborhood size for a core point
}

// DefaultDBSCANParams returns parameters suitable for vehicle-scale objects.
func DefaultDBSCANParams() DBSCANParams {
	return DBSCANParams{
		Eps:    DefaultDBSCANEps,
		MinPts: DefaultDBSCANMinPts,
	}
}

// Validate checks the parameters, returning a fatal configuration error
// on the first invalid field.
func (p DBSCANParams) Validate() error {
	if p.Eps <= 0 {
		return fmt.Errorf("dbscan eps must be > 0, got %f", p.Eps)
	}
	if p.MinPts < 1 {
		return fmt.Errorf("dbscan min_points must be >= 1, got %d", p.MinPts)
	}
	return nil
}

// cellKey identifies one cubic cell of the spatial index grid.
type cellKey struct {
	X, Y, Z int64
}

// SpatialIndex provides neighbor queries over a regular 3D grid. Cell size
// should match the DBSCAN eps parameter so a query only visits the 3×3×3
// neighborhood of cells.
type SpatialIndex struct {
	CellSize float64
	Grid     map[cellKey][]int // Cell → point indices, in insertion order
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[cellKey][]int),
	}
}

// Build populates the spatial index from a set of points. Indices are
// appended in input order, which keeps neighbor enumeration deterministic
// for a fixed point ordering.
func (si *SpatialIndex) Build(points []Point) {
	si.Grid = make(map[cellKey][]int, len(points)/EstimatedPointsPerCell+1)
	for i, p := range points {
		si.Grid[si.cellOf(p)] = append(si.Grid[si.cellOf(p)], i)
	}
}

func (si *SpatialIndex) cellOf(p Point) cellKey {
	return cellKey{
		X: int64(math.Floor(p.X / si.CellSize)),
		Y: int64(math.Floor(p.Y / si.CellSize)),
		Z: int64(math.Floor(p.Z / si.CellSize)),
	}
}

// RegionQuery returns indices of all points within eps of points[idx],
// including idx itself. Distance is full 3D Euclidean.
func (si *SpatialIndex) RegionQuery(points []Point, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps // Squared distance avoids sqrt in the hot loop
	base := si.cellOf(p)

	neighbors := []int{}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				cell := cellKey{X: base.X + dx, Y: base.Y + dy, Z: base.Z + dz}
				for _, candidateIdx := range si.Grid[cell] {
					c := points[candidateIdx]
					ddx := c.X - p.X
					ddy := c.Y - p.Y
					ddz := c.Z - p.Z
					if ddx*ddx+ddy*ddy+ddz*ddz <= eps2 {
						neighbors = append(neighbors, candidateIdx)
					}
				}
			}
		}
	}
	return neighbors
}

// DBSCAN performs density-based clustering over points and returns the
// discovered clusters as index sets. Points reachable from no core point
// are noise and belong to no cluster. The cluster count is an output of
// the algorithm, never an input.
//
// The result is deterministic for a fixed input ordering: seeds are
// visited in index order and expansion follows a FIFO queue, so a border
// point reachable from two chains lands in whichever cluster reaches it
// first.
func DBSCAN(points []Point, params DBSCANParams) []Cluster {
	if len(points) == 0 {
		return nil
	}

	n := len(points)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	// Spatial index keeps region queries near O(1) per point; brute force
	// would make dense frames quadratic.
	spatialIndex := NewSpatialIndex(params.Eps)
	spatialIndex.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue // Already processed
		}

		neighbors := spatialIndex.RegionQuery(points, i, params.Eps)
		if len(neighbors) < params.MinPts {
			labels[i] = -1 // Mark as noise
			continue
		}

		clusterID++
		expandCluster(points, spatialIndex, labels, i, neighbors, clusterID, params.Eps, params.MinPts)
	}

	return buildClusters(labels, clusterID)
}

// expandCluster grows a cluster outward from a core point.
func expandCluster(points []Point, si *SpatialIndex, labels []int,
	seedIdx int, neighbors []int, clusterID int, eps float64, minPts int) {

	labels[seedIdx] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // Noise becomes border point
		}
		if labels[idx] != 0 {
			continue // Already claimed
		}

		labels[idx] = clusterID
		newNeighbors := si.RegionQuery(points, idx, eps)
		if len(newNeighbors) >= minPts {
			// Core point: queue its neighborhood for expansion too.
			neighbors = append(neighbors, newNeighbors...)
		}
	}
}

// buildClusters collects point indices per cluster label. The per-cluster
// index lists come out sorted because labels are scanned in point order.
func buildClusters(labels []int, maxClusterID int) []Cluster {
	if maxClusterID == 0 {
		return nil
	}
	clusters := make([]Cluster, maxClusterID)
	for i, label := range labels {
		if label > 0 {
			clusters[label-1].PointIndices = append(clusters[label-1].PointIndices, i)
		}
	}
	return clusters
}
