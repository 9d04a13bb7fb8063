package tracking

import (
	"testing"

	"github.com/kerbside-data/object.report/internal/perception"
)

func TestAssociate_GreedyNearestFirst(t *testing.T) {
	tr := NewTracker(Config{GateDistance: 10, MissGrace: 2, LostGrace: 6})

	// Two tracks at x=0 and x=10.
	tr.Update(0, []perception.Detection{
		det(0, 0, 0, perception.ClassCar),
		det(10, 0, 0, perception.ClassCar),
	})

	// A detection at x=4 is within the gate of both tracks but closer to
	// track 1; the one at x=9 belongs to track 2.
	detections := []perception.Detection{
		det(9, 0, 0, perception.ClassCar),
		det(4, 0, 0, perception.ClassCar),
	}
	result := tr.Update(1, detections)

	assigned := make(map[int64]int)
	for _, m := range result.Matches {
		assigned[m.TrackID] = m.DetectionIndex
	}
	if assigned[1] != 1 {
		t.Fatalf("track 1 should take the closer detection, got index %d", assigned[1])
	}
	if assigned[2] != 0 {
		t.Fatalf("track 2 should take the remaining detection, got index %d", assigned[2])
	}
}

// Equidistant candidates must resolve identically on every run: lowest
// track ID wins, then lowest detection index.
func TestAssociate_DeterministicTieBreak(t *testing.T) {
	makeTracker := func() *Tracker {
		tr := NewTracker(Config{GateDistance: 10, MissGrace: 2, LostGrace: 6})
		tr.Update(0, []perception.Detection{
			det(-1, 0, 0, perception.ClassUnknown),
			det(1, 0, 0, perception.ClassUnknown),
		})
		return tr
	}

	// A single detection exactly between both tracks.
	detections := []perception.Detection{det(0, 0, 0, perception.ClassUnknown)}

	var firstWinner int64
	for run := 0; run < 10; run++ {
		tr := makeTracker()
		result := tr.Update(1, detections)

		var winner int64
		for _, m := range result.Matches {
			if m.DetectionIndex == 0 && m.Distance > 0 {
				winner = m.TrackID
			}
		}
		if run == 0 {
			firstWinner = winner
			if winner != 1 {
				t.Fatalf("tie must resolve to the lowest track ID, got %d", winner)
			}
			continue
		}
		if winner != firstWinner {
			t.Fatalf("run %d: tie-break unstable: %d vs %d", run, winner, firstWinner)
		}
	}
}

func TestAssociate_OneToOne(t *testing.T) {
	tr := NewTracker(Config{GateDistance: 10, MissGrace: 2, LostGrace: 6})
	tr.Update(0, []perception.Detection{det(0, 0, 0, perception.ClassCar)})

	// Two detections near one track: only one may claim it, the other
	// spawns.
	result := tr.Update(1, []perception.Detection{
		det(0.5, 0, 0, perception.ClassCar),
		det(1.0, 0, 0, perception.ClassCar),
	})

	if result.Born != 1 {
		t.Fatalf("expected one spawn, got %d", result.Born)
	}
	seen := make(map[int64]bool)
	for _, m := range result.Matches {
		if seen[m.TrackID] {
			t.Fatalf("track %d matched twice", m.TrackID)
		}
		seen[m.TrackID] = true
	}
}

func TestEuclidean(t *testing.T) {
	if d := euclidean(0, 0, 0, 3, 4, 0); d != 5 {
		t.Fatalf("distance: %f", d)
	}
	if d := euclidean(1, 1, 1, 1, 1, 1); d != 0 {
		t.Fatalf("self distance: %f", d)
	}
}
