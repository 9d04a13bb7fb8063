package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kerbside-data/object.report/internal/pipeline"
)

// Store persists frame reports to SQLite, grouped by run. A run is one
// pipeline invocation over a frame directory; run IDs are UUIDs so
// repeated runs over the same data never collide.
type Store struct {
	db    *sql.DB
	runID string
}

// OpenStore opens (creating if needed) the SQLite database at path and
// starts a new run.
func OpenStore(path, sourceDir string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create report schema: %w", err)
	}

	s := &Store{db: db, runID: uuid.New().String()}
	_, err = db.Exec(
		`INSERT INTO runs (run_id, source_dir, started_unix_nanos) VALUES (?, ?, ?)`,
		s.runID, sourceDir, time.Now().UnixNano(),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		source_dir TEXT,
		started_unix_nanos BIGINT,
		finished_unix_nanos BIGINT,
		frames_processed INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS frame_reports (
		run_id TEXT NOT NULL,
		frame_index INTEGER NOT NULL,
		degraded INTEGER NOT NULL,
		data_quality_events INTEGER NOT NULL,
		ground_plane_found INTEGER NOT NULL,
		point_count INTEGER NOT NULL,
		non_ground_count INTEGER NOT NULL,
		cluster_count INTEGER NOT NULL,
		detection_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, frame_index),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);
	CREATE TABLE IF NOT EXISTS frame_detections (
		run_id TEXT NOT NULL,
		frame_index INTEGER NOT NULL,
		track_id BIGINT NOT NULL,
		class TEXT NOT NULL,
		centroid_x DOUBLE NOT NULL,
		centroid_y DOUBLE NOT NULL,
		centroid_z DOUBLE NOT NULL,
		length DOUBLE NOT NULL,
		width DOUBLE NOT NULL,
		height DOUBLE NOT NULL,
		hit_count INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);
	CREATE INDEX IF NOT EXISTS idx_frame_detections_track
		ON frame_detections(run_id, track_id);
`

// RunID returns the store's active run identifier.
func (s *Store) RunID() string { return s.runID }

// EmitFrameReport implements pipeline.Sink: one frame_reports row plus a
// frame_detections row per detection-to-track mapping, in a single
// transaction per frame.
func (s *Store) EmitFrameReport(report *pipeline.FrameReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin frame %d transaction: %w", report.FrameIndex, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO frame_reports (
			run_id, frame_index, degraded, data_quality_events,
			ground_plane_found, point_count, non_ground_count,
			cluster_count, detection_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, report.FrameIndex, boolToInt(report.Degraded),
		report.DataQualityEvents, boolToInt(report.GroundPlaneFound),
		report.PointCount, report.NonGroundCount,
		report.ClusterCount, len(report.Detections),
	)
	if err != nil {
		return fmt.Errorf("insert frame %d report: %w", report.FrameIndex, err)
	}

	for _, d := range report.Detections {
		_, err = tx.Exec(`
			INSERT INTO frame_detections (
				run_id, frame_index, track_id, class,
				centroid_x, centroid_y, centroid_z,
				length, width, height, hit_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, report.FrameIndex, d.TrackID, string(d.Class),
			d.Centroid.X, d.Centroid.Y, d.Centroid.Z,
			d.Extents.Length, d.Extents.Width, d.Extents.Height, d.HitCount,
		)
		if err != nil {
			return fmt.Errorf("insert frame %d detection for track %d: %w", report.FrameIndex, d.TrackID, err)
		}
	}

	_, err = tx.Exec(
		`UPDATE runs SET frames_processed = frames_processed + 1 WHERE run_id = ?`,
		s.runID,
	)
	if err != nil {
		return fmt.Errorf("update run frame count: %w", err)
	}

	return tx.Commit()
}

// FinishRun stamps the run's completion time.
func (s *Store) FinishRun() error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished_unix_nanos = ? WHERE run_id = ?`,
		time.Now().UnixNano(), s.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// LatestRunID returns the most recently started run in the database.
func LatestRunID(db *sql.DB) (string, error) {
	var runID string
	err := db.QueryRow(
		`SELECT run_id FROM runs ORDER BY started_unix_nanos DESC LIMIT 1`,
	).Scan(&runID)
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return runID, nil
}

// TrackSummary aggregates one track's appearances across a run. Class is
// the majority label over the track's detections.
type TrackSummary struct {
	TrackID    int64
	Class      string
	FirstFrame int
	LastFrame  int
	Frames     int // Frames with a matched detection
}

// DurationFrames returns the span of the track in frames, inclusive.
func (t TrackSummary) DurationFrames() int { return t.LastFrame - t.FirstFrame + 1 }

// TrackSummaries returns one summary per track observed in the run,
// ordered by track ID.
func TrackSummaries(db *sql.DB, runID string) ([]TrackSummary, error) {
	rows, err := db.Query(`
		SELECT track_id, class, COUNT(*) AS n,
		       MIN(frame_index) AS first_frame, MAX(frame_index) AS last_frame
		FROM frame_detections
		WHERE run_id = ?
		GROUP BY track_id, class
		ORDER BY track_id, n DESC, class`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query track summaries: %w", err)
	}
	defer rows.Close()

	// Rows arrive grouped by (track, class) with the dominant class
	// first; fold them into per-track summaries.
	var summaries []TrackSummary
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			trackID              int64
			class                string
			n, firstIdx, lastIdx int
		)
		if err := rows.Scan(&trackID, &class, &n, &firstIdx, &lastIdx); err != nil {
			return nil, fmt.Errorf("scan track summary: %w", err)
		}
		if i, ok := byID[trackID]; ok {
			s := &summaries[i]
			s.Frames += n
			if firstIdx < s.FirstFrame {
				s.FirstFrame = firstIdx
			}
			if lastIdx > s.LastFrame {
				s.LastFrame = lastIdx
			}
			continue
		}
		byID[trackID] = len(summaries)
		summaries = append(summaries, TrackSummary{
			TrackID:    trackID,
			Class:      class,
			FirstFrame: firstIdx,
			LastFrame:  lastIdx,
			Frames:     n,
		})
	}
	return summaries, rows.Err()
}

// OpenDB opens an existing report database read-side.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}
	return db, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
