package perception

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// ErrModelFit is returned when the ground segmenter cannot find a plane
// meeting the minimum inlier ratio within the iteration budget. It is a
// non-fatal, per-frame condition: the caller proceeds with no ground plane
// and passes all points through as non-ground.
var ErrModelFit = errors.New("ground plane fit failed")

// Constants for ground segmentation.
const (
	// MinPlanePoints is the number of samples needed to define a plane.
	MinPlanePoints = 3
	// DegenerateNormalEpsilon rejects sample triples whose cross product
	// is too small to define a stable plane normal (near-collinear).
	DegenerateNormalEpsilon = 1e-9
	// MaxResampleFactor bounds how many degenerate triples are tolerated
	// per iteration budget before giving up on a frame.
	MaxResampleFactor = 4
)

// PlaneModel holds the coefficients of the plane ax+by+cz+d=0 with a unit
// normal (a,b,c), plus the inlier distance threshold it was fitted with.
// A PlaneModel is created fresh per frame and never retained.
type PlaneModel struct {
	A, B, C, D      float64
	InlierThreshold float64
}

// DistanceTo returns the perpendicular distance from p to the plane.
func (m PlaneModel) DistanceTo(p Point) float64 {
	return math.Abs(m.A*p.X + m.B*p.Y + m.C*p.Z + m.D)
}

// RANSACParams configures the randomized consensus plane fit.
type RANSACParams struct {
	// MaxIterations caps the number of sample triples evaluated.
	MaxIterations int
	// InlierThreshold is the maximum perpendicular distance (metres) for
	// a point to count toward a candidate plane's consensus.
	InlierThreshold float64
	// MinInlierRatio is the smallest acceptable fraction of frame points
	// on the winning plane. Below this the fit fails for the frame.
	MinInlierRatio float64
	// Confidence drives the adaptive stopping rule: iteration stops once
	// enough samples have been drawn to guarantee, at this confidence,
	// that an all-inlier triple was seen given the observed inlier ratio.
	Confidence float64
}

// DefaultRANSACParams returns parameters suitable for street scenes with a
// dominant road surface.
func DefaultRANSACParams() RANSACParams {
	return RANSACParams{
		MaxIterations:   200,
		InlierThreshold: 0.2,
		MinInlierRatio:  0.15,
		Confidence:      0.99,
	}
}

// Validate checks the parameters, returning a fatal configuration error
// on the first invalid field.
func (p RANSACParams) Validate() error {
	if p.MaxIterations < 1 {
		return fmt.Errorf("ransac max_iterations must be >= 1, got %d", p.MaxIterations)
	}
	if p.InlierThreshold <= 0 {
		return fmt.Errorf("ransac inlier_threshold must be > 0, got %f", p.InlierThreshold)
	}
	if p.MinInlierRatio <= 0 || p.MinInlierRatio > 1 {
		return fmt.Errorf("ransac min_inlier_ratio must be in (0, 1], got %f", p.MinInlierRatio)
	}
	if p.Confidence <= 0 || p.Confidence >= 1 {
		return fmt.Errorf("ransac confidence must be in (0, 1), got %f", p.Confidence)
	}
	return nil
}

// GroundSegmenter fits a planar ground model per frame via randomized
// consensus sampling. The random source is injected so replay tests can
// pin a seed instead of relying on global entropy.
type GroundSegmenter struct {
	params RANSACParams
	rng    *rand.Rand
}

// NewGroundSegmenter creates a segmenter with the given parameters and
// random source. A nil rng falls back to a fixed-seed source.
func NewGroundSegmenter(params RANSACParams, rng *rand.Rand) *GroundSegmenter {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &GroundSegmenter{params: params, rng: rng}
}

// Params returns the segmenter's parameters.
func (g *GroundSegmenter) Params() RANSACParams { return g.params }

// Segment fits the dominant plane through points and returns the model
// plus a mask where true marks a ground inlier. On ErrModelFit the mask is
// all false, so every point flows downstream as non-ground.
//
// The consensus loop draws triples of distinct points, rejects degenerate
// (near-collinear) samples, and keeps the plane with the largest inlier
// count. The iteration budget shrinks adaptively once the best plane's
// inlier ratio makes further sampling statistically unnecessary.
func (g *GroundSegmenter) Segment(points []Point) (PlaneModel, []bool, error) {
	mask := make([]bool, len(points))
	if len(points) < MinPlanePoints {
		return PlaneModel{}, mask, fmt.Errorf("%w: %d points, need %d", ErrModelFit, len(points), MinPlanePoints)
	}

	n := len(points)
	var best PlaneModel
	bestInliers := 0

	iterationsNeeded := g.params.MaxIterations
	attempts := 0
	maxAttempts := g.params.MaxIterations * MaxResampleFactor

	for iter := 0; iter < iterationsNeeded && attempts < maxAttempts; attempts++ {
		i, j, k := g.sampleTriple(n)
		plane, ok := planeThrough(points[i], points[j], points[k])
		if !ok {
			// Degenerate triple: resample without consuming an iteration.
			continue
		}
		iter++

		plane.InlierThreshold = g.params.InlierThreshold
		count := countInliers(points, plane)
		if count <= bestInliers {
			continue
		}
		bestInliers = count
		best = plane

		// Adaptive stopping rule: with inlier ratio r, the chance a random
		// triple is all-inlier is r³; stop once 1-(1-r³)^iters ≥ confidence.
		ratio := float64(count) / float64(n)
		if needed := adaptiveIterations(g.params.Confidence, ratio); needed < iterationsNeeded {
			iterationsNeeded = needed
		}
	}

	if bestInliers == 0 || float64(bestInliers)/float64(n) < g.params.MinInlierRatio {
		return PlaneModel{}, mask, fmt.Errorf("%w: best inlier ratio %.3f below minimum %.3f",
			ErrModelFit, float64(bestInliers)/float64(n), g.params.MinInlierRatio)
	}

	for i, p := range points {
		if best.DistanceTo(p) <= best.InlierThreshold {
			mask[i] = true
		}
	}
	return best, mask, nil
}

// sampleTriple draws three distinct point indices.
func (g *GroundSegmenter) sampleTriple(n int) (int, int, int) {
	i := g.rng.Intn(n)
	j := g.rng.Intn(n)
	for j == i {
		j = g.rng.Intn(n)
	}
	k := g.rng.Intn(n)
	for k == i || k == j {
		k = g.rng.Intn(n)
	}
	return i, j, k
}

// planeThrough derives the plane defined by three points. Returns ok=false
// when the points are near-collinear and the normal is ill-defined.
func planeThrough(p1, p2, p3 Point) (PlaneModel, bool) {
	a := r3.Vector{X: p1.X, Y: p1.Y, Z: p1.Z}
	b := r3.Vector{X: p2.X, Y: p2.Y, Z: p2.Z}
	c := r3.Vector{X: p3.X, Y: p3.Y, Z: p3.Z}

	normal := b.Sub(a).Cross(c.Sub(a))
	norm := normal.Norm()
	if norm < DegenerateNormalEpsilon {
		return PlaneModel{}, false
	}
	normal = normal.Mul(1 / norm)

	return PlaneModel{
		A: normal.X,
		B: normal.Y,
		C: normal.Z,
		D: -normal.Dot(a),
	}, true
}

// countInliers counts points within the plane's inlier threshold.
func countInliers(points []Point, plane PlaneModel) int {
	count := 0
	for _, p := range points {
		if plane.DistanceTo(p) <= plane.InlierThreshold {
			count++
		}
	}
	return count
}

// adaptiveIterations returns the iteration count required to have drawn at
// least one all-inlier sample triple at the given confidence level.
func adaptiveIterations(confidence, inlierRatio float64) int {
	if inlierRatio <= 0 {
		return math.MaxInt32
	}
	if inlierRatio >= 1 {
		return 1
	}
	p3 := inlierRatio * inlierRatio * inlierRatio
	denom := math.Log(1 - p3)
	if denom == 0 {
		return math.MaxInt32
	}
	needed := math.Log(1-confidence) / denom
	if needed < 1 {
		return 1
	}
	if needed > float64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(math.Ceil(needed))
}

// SplitGround partitions points by the inlier mask, returning the
// non-ground subset. The returned slice is freshly allocated; the input is
// never mutated.
func SplitGround(points []Point, groundMask []bool) []Point {
	nonGround := make([]Point, 0, len(points))
	for i, p := range points {
		if i < len(groundMask) && groundMask[i] {
			continue
		}
		nonGround = append(nonGround, p)
	}
	return nonGround
}
