package analysis

import (
	"testing"

	"github.com/kerbside-data/object.report/internal/report"
)

func summaries() []report.TrackSummary {
	return []report.TrackSummary{
		{TrackID: 1, Class: "car", FirstFrame: 0, LastFrame: 9, Frames: 10},
		{TrackID: 2, Class: "pedestrian", FirstFrame: 3, LastFrame: 6, Frames: 4},
		{TrackID: 3, Class: "car", FirstFrame: 5, LastFrame: 6, Frames: 2},
		{TrackID: 4, Class: "unknown", FirstFrame: 8, LastFrame: 8, Frames: 1},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize("run-1", summaries())

	if s.RunID != "run-1" {
		t.Fatalf("run ID: %s", s.RunID)
	}
	if s.UniqueTracks != 4 {
		t.Fatalf("unique tracks: %d", s.UniqueTracks)
	}
	if s.ClassCounts["car"] != 2 || s.ClassCounts["pedestrian"] != 1 || s.ClassCounts["unknown"] != 1 {
		t.Fatalf("class counts: %v", s.ClassCounts)
	}

	// Durations are 10, 4, 2, 1 frames.
	if s.MeanDuration != 4.25 {
		t.Fatalf("mean duration: %f", s.MeanDuration)
	}
	if s.Longest.TrackID != 1 || s.Longest.DurationFrames() != 10 {
		t.Fatalf("longest track: %+v", s.Longest)
	}
	if s.MedianDuration < 2 || s.MedianDuration > 4 {
		t.Fatalf("median duration: %f", s.MedianDuration)
	}
	if s.P90Duration < s.MedianDuration {
		t.Fatalf("p90 %f below median %f", s.P90Duration, s.MedianDuration)
	}
}

func TestSummarize_EmptyRun(t *testing.T) {
	s := Summarize("run-2", nil)
	if s.UniqueTracks != 0 || len(s.ClassCounts) != 0 {
		t.Fatalf("empty run summary: %+v", s)
	}
	if s.MeanDuration != 0 {
		t.Fatalf("mean duration on empty run: %f", s.MeanDuration)
	}
}

func TestDurations(t *testing.T) {
	got := Durations(summaries())
	want := []float64{10, 4, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("durations: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("duration %d: got %f want %f", i, got[i], want[i])
		}
	}
}
