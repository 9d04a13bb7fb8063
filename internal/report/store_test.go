package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerbside-data/object.report/internal/perception"
	"github.com/kerbside-data/object.report/internal/pipeline"
)

func frameReport(frameIndex int, detections ...pipeline.TrackedDetection) *pipeline.FrameReport {
	return &pipeline.FrameReport{
		FrameIndex:       frameIndex,
		GroundPlaneFound: true,
		PointCount:       1000,
		NonGroundCount:   200,
		ClusterCount:     len(detections),
		Detections:       detections,
	}
}

func tracked(trackID int64, class string, hits int) pipeline.TrackedDetection {
	return pipeline.TrackedDetection{
		TrackID:  trackID,
		Class:    perception.ClassLabel(class),
		Centroid: pipeline.Centroid{X: 1, Y: 2, Z: 0.5},
		Extents:  pipeline.Extents{Length: 4, Width: 1.8, Height: 1.5},
		HitCount: hits,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := OpenStore(path, "/data/sweep1")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EmitFrameReport(frameReport(0, tracked(1, "car", 1))))
	require.NoError(t, store.EmitFrameReport(frameReport(1, tracked(1, "car", 2), tracked(2, "pedestrian", 1))))
	require.NoError(t, store.EmitFrameReport(frameReport(2)))
	require.NoError(t, store.FinishRun())

	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	runID, err := LatestRunID(db)
	require.NoError(t, err)
	require.Equal(t, store.RunID(), runID)

	var frames, detections int
	require.NoError(t, db.QueryRow(
		`SELECT frames_processed FROM runs WHERE run_id = ?`, runID).Scan(&frames))
	require.Equal(t, 3, frames)
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM frame_detections WHERE run_id = ?`, runID).Scan(&detections))
	require.Equal(t, 3, detections)
}

func TestStore_DuplicateFrameRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := OpenStore(path, "")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EmitFrameReport(frameReport(5)))
	require.Error(t, store.EmitFrameReport(frameReport(5)), "frame index is unique per run")
}

func TestTrackSummaries_MajorityClassAndSpan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := OpenStore(path, "")
	require.NoError(t, err)
	defer store.Close()

	// Track 1: classified unknown once, car twice → majority car.
	// Track 2: pedestrian for one frame.
	require.NoError(t, store.EmitFrameReport(frameReport(0, tracked(1, "unknown", 1))))
	require.NoError(t, store.EmitFrameReport(frameReport(1, tracked(1, "car", 2), tracked(2, "pedestrian", 1))))
	require.NoError(t, store.EmitFrameReport(frameReport(2, tracked(1, "car", 3))))

	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	summaries, err := TrackSummaries(db, store.RunID())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	require.Equal(t, int64(1), summaries[0].TrackID)
	require.Equal(t, "car", summaries[0].Class)
	require.Equal(t, 0, summaries[0].FirstFrame)
	require.Equal(t, 2, summaries[0].LastFrame)
	require.Equal(t, 3, summaries[0].Frames)
	require.Equal(t, 3, summaries[0].DurationFrames())

	require.Equal(t, int64(2), summaries[1].TrackID)
	require.Equal(t, "pedestrian", summaries[1].Class)
	require.Equal(t, 1, summaries[1].DurationFrames())
}

func TestLatestRunID_PicksNewestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")

	first, err := OpenStore(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenStore(path, "")
	require.NoError(t, err)
	defer second.Close()

	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	runID, err := LatestRunID(db)
	require.NoError(t, err)
	require.Equal(t, second.RunID(), runID)
}
