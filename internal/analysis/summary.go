// Package analysis aggregates a run's persisted frame reports into
// whole-run statistics and charts: unique objects per class and the
// distribution of track lifetimes.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kerbside-data/object.report/internal/report"
)

// RunSummary holds whole-run aggregate statistics.
type RunSummary struct {
	RunID        string
	UniqueTracks int

	// ClassCounts maps majority class → unique track count.
	ClassCounts map[string]int

	// Track lifetime statistics, in frames.
	MeanDuration   float64
	MedianDuration float64
	P90Duration    float64

	// Longest holds the longest-lived track, zero-valued when the run
	// produced no tracks.
	Longest report.TrackSummary
}

// Summarize folds per-track summaries into run statistics.
func Summarize(runID string, summaries []report.TrackSummary) RunSummary {
	out := RunSummary{
		RunID:        runID,
		UniqueTracks: len(summaries),
		ClassCounts:  make(map[string]int),
	}
	if len(summaries) == 0 {
		return out
	}

	durations := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		out.ClassCounts[s.Class]++
		durations = append(durations, float64(s.DurationFrames()))
		if s.DurationFrames() > out.Longest.DurationFrames() || out.Longest.Frames == 0 {
			out.Longest = s
		}
	}

	sort.Float64s(durations)
	out.MeanDuration = stat.Mean(durations, nil)
	out.MedianDuration = stat.Quantile(0.5, stat.Empirical, durations, nil)
	out.P90Duration = stat.Quantile(0.9, stat.Empirical, durations, nil)
	return out
}

// Durations returns every track's lifetime in frames, for histogramming.
func Durations(summaries []report.TrackSummary) []float64 {
	durations := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		durations = append(durations, float64(s.DurationFrames()))
	}
	return durations
}
