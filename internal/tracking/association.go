package tracking

import (
	"math"
	"sort"

	"github.com/kerbside-data/object.report/internal/perception"
)

// candidatePair is one admissible (track, detection) pairing under the gate.
type candidatePair struct {
	trackID        int64
	detectionIndex int
	distance       float64
}

// associate matches detections to live tracks with a greedy global
// nearest-neighbour pass: repeatedly commit the smallest remaining
// (track, detection) distance under the gate, removing both from further
// consideration.
//
// Greedy is a deliberate simplification over optimal bipartite matching
// (Hungarian). Its known failure mode is mis-assignment when trajectories
// cross inside the gate; for the target scenes the gate is small relative
// to object spacing, so the cheaper pass suffices.
//
// Determinism: candidates are sorted by (distance, trackID,
// detectionIndex), so equal distances always resolve to the lowest track
// ID first regardless of map iteration order.
func (t *Tracker) associate(detections []perception.Detection, valid []int) []Match {
	if len(t.tracks) == 0 || len(valid) == 0 {
		return nil
	}

	gate := t.config.GateDistance
	candidates := make([]candidatePair, 0, len(valid)*len(t.tracks))
	for id, track := range t.tracks {
		for _, di := range valid {
			d := detections[di]
			dist := euclidean(track.X, track.Y, track.Z, d.CentroidX, d.CentroidY, d.CentroidZ)
			if dist <= gate {
				candidates = append(candidates, candidatePair{
					trackID:        id,
					detectionIndex: di,
					distance:       dist,
				})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.trackID != b.trackID {
			return a.trackID < b.trackID
		}
		return a.detectionIndex < b.detectionIndex
	})

	usedTracks := make(map[int64]bool, len(t.tracks))
	usedDetections := make(map[int]bool, len(valid))
	matches := make([]Match, 0, min(len(valid), len(t.tracks)))
	for _, c := range candidates {
		if usedTracks[c.trackID] || usedDetections[c.detectionIndex] {
			continue
		}
		usedTracks[c.trackID] = true
		usedDetections[c.detectionIndex] = true
		matches = append(matches, Match{
			DetectionIndex: c.detectionIndex,
			TrackID:        c.trackID,
			Distance:       c.distance,
		})
	}
	return matches
}

// euclidean returns the 3D Euclidean distance between two centroids.
// It never fails: non-finite inputs are filtered before association.
func euclidean(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	dz := z2 - z1
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
