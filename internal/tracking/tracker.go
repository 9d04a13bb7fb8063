package tracking

import (
	"fmt"
	"sort"

	"github.com/kerbside-data/object.report/internal/monitoring"
	"github.com/kerbside-data/object.report/internal/perception"
)

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	// TrackNew marks a track created this frame, not yet re-observed.
	TrackNew TrackState = "new"
	// TrackActive marks a track matched in at least one prior frame.
	TrackActive TrackState = "active"
	// TrackLost marks a track unmatched this frame, within its grace period.
	TrackLost TrackState = "lost"
	// TrackTerminated is terminal: the track left the live pool and is
	// never revisited. Its ID is never reused.
	TrackTerminated TrackState = "terminated"
)

// Config holds the tracker's tuning parameters.
type Config struct {
	// GateDistance is the maximum centroid distance (metres) for a
	// detection to be matched to a track.
	GateDistance float64
	// MissGrace is how many consecutive unmatched frames an active track
	// tolerates before it transitions to lost.
	MissGrace int
	// LostGrace is the cumulative consecutive-miss budget before a lost
	// track is terminated. Must be >= MissGrace.
	LostGrace int
}

// DefaultConfig returns tracker parameters suitable for street scenes at
// typical sensor frame rates.
func DefaultConfig() Config {
	return Config{
		GateDistance: 5.0,
		MissGrace:    2,
		LostGrace:    6,
	}
}

// Validate checks the configuration, returning a fatal error on the first
// invalid field. The pipeline refuses to start on an invalid config.
func (c Config) Validate() error {
	if c.GateDistance <= 0 {
		return fmt.Errorf("tracking gate_distance must be > 0, got %f", c.GateDistance)
	}
	if c.MissGrace < 0 {
		return fmt.Errorf("tracking miss_grace must be >= 0, got %d", c.MissGrace)
	}
	if c.LostGrace < c.MissGrace {
		return fmt.Errorf("tracking lost_grace (%d) must be >= miss_grace (%d)", c.LostGrace, c.MissGrace)
	}
	return nil
}

// Track is a persistent identity spanning multiple frames. The tracker
// owns and mutates tracks; callers receive snapshots via UpdateResult.
type Track struct {
	ID    int64
	State TrackState

	// Last known centroid (metres) and class.
	X, Y, Z float64
	Class   perception.ClassLabel

	// Last matched detection's extents, kept for reporting.
	Length, Width, Height float64

	Age    int // Frames since creation
	Hits   int // Total matched frames
	Misses int // Consecutive unmatched frames

	FirstFrame int
	LastFrame  int // Last frame with a matched detection
}

// Tracker maintains the pool of live tracks. The pool is an arena keyed
// by track ID; matches are expressed as a transient detection-index →
// track-ID mapping recomputed each frame, never stored as links.
//
// Tracker is not safe for concurrent use: the pipeline feeds it from a
// single consumer goroutine in strict frame order.
type Tracker struct {
	config Config

	tracks map[int64]*Track
	nextID int64

	// Lifetime counters.
	created    int64
	terminated int64
}

// NewTracker creates a tracker. ID assignment starts at 1 and is reset
// only here, at pipeline start.
func NewTracker(config Config) *Tracker {
	return &Tracker{
		config: config,
		tracks: make(map[int64]*Track),
		nextID: 1,
	}
}

// Config returns the tracker's configuration.
func (t *Tracker) Config() Config { return t.config }

// Match records that a detection was associated with a track this frame.
type Match struct {
	DetectionIndex int
	TrackID        int64
	Distance       float64
}

// UpdateResult summarizes one frame's tracker update.
type UpdateResult struct {
	// Matches maps each surviving detection (by index into the detections
	// slice passed to Update, after data-quality filtering) to its track.
	// Includes freshly created tracks.
	Matches []Match
	// Rejected counts detections dropped for non-finite centroids.
	Rejected int
	// Born and Died count track creations and terminations this frame.
	Born int
	Died int
}

// Update consumes one frame's detections in frame order and mutates the
// live pool: matched tracks adopt the detection's centroid and class,
// unmatched tracks age toward termination, and unmatched detections spawn
// new tracks. An empty detection slice is normal control flow — all live
// tracks age, nothing errors.
func (t *Tracker) Update(frameIndex int, detections []perception.Detection) UpdateResult {
	var result UpdateResult

	// Reject malformed detections before association. A non-finite
	// centroid would poison every distance comparison.
	valid := make([]int, 0, len(detections))
	for i, d := range detections {
		if !d.FiniteCentroid() {
			result.Rejected++
			monitoring.Opsf("[tracking] frame %d: rejected detection %d with non-finite centroid", frameIndex, i)
			continue
		}
		valid = append(valid, i)
	}

	matches := t.associate(detections, valid)
	result.Matches = make([]Match, 0, len(valid))

	matchedTracks := make(map[int64]bool, len(matches))
	matchedDetections := make(map[int]bool, len(matches))
	for _, m := range matches {
		d := detections[m.DetectionIndex]
		track := t.tracks[m.TrackID]
		track.X = d.CentroidX
		track.Y = d.CentroidY
		track.Z = d.CentroidZ
		track.Class = d.Class
		track.Length = d.Length
		track.Width = d.Width
		track.Height = d.Height
		track.Hits++
		track.Misses = 0
		track.Age++
		track.LastFrame = frameIndex
		track.State = TrackActive

		matchedTracks[m.TrackID] = true
		matchedDetections[m.DetectionIndex] = true
		result.Matches = append(result.Matches, m)
	}

	// Age unmatched tracks. Exactly one transition is evaluated per
	// frame: active → lost past the miss grace, lost → terminated past
	// the cumulative lost grace.
	for id, track := range t.tracks {
		if matchedTracks[id] {
			continue
		}
		track.Misses++
		track.Age++
		switch track.State {
		case TrackNew, TrackActive:
			if track.Misses > t.config.MissGrace {
				track.State = TrackLost
			}
		case TrackLost:
			if track.Misses > t.config.LostGrace {
				track.State = TrackTerminated
				delete(t.tracks, id)
				t.terminated++
				result.Died++
				monitoring.Diagf("[tracking] frame %d: track %d terminated after %d misses", frameIndex, id, track.Misses)
			}
		}
	}

	// Spawn tracks for unmatched detections. New tracks join the live
	// pool immediately and are matchable next frame.
	for _, idx := range valid {
		if matchedDetections[idx] {
			continue
		}
		track := t.spawn(frameIndex, detections[idx])
		result.Born++
		result.Matches = append(result.Matches, Match{
			DetectionIndex: idx,
			TrackID:        track.ID,
		})
	}

	return result
}

// spawn creates a live track from an unmatched detection, assigning the
// next unused ID. IDs strictly increase with creation order.
func (t *Tracker) spawn(frameIndex int, d perception.Detection) *Track {
	track := &Track{
		ID:         t.nextID,
		State:      TrackNew,
		X:          d.CentroidX,
		Y:          d.CentroidY,
		Z:          d.CentroidZ,
		Class:      d.Class,
		Length:     d.Length,
		Width:      d.Width,
		Height:     d.Height,
		Hits:       1,
		FirstFrame: frameIndex,
		LastFrame:  frameIndex,
	}
	t.nextID++
	t.tracks[track.ID] = track
	t.created++
	return track
}

// Get returns the live track with the given ID, or nil.
func (t *Tracker) Get(id int64) *Track { return t.tracks[id] }

// LiveCount returns the number of tracks currently in the live pool.
func (t *Tracker) LiveCount() int { return len(t.tracks) }

// Counts returns lifetime creation and termination totals.
func (t *Tracker) Counts() (created, terminated int64) {
	return t.created, t.terminated
}

// LiveTracks returns snapshots of every live track, ordered by ID.
func (t *Tracker) LiveTracks() []Track {
	out := make([]Track, 0, len(t.tracks))
	for _, track := range t.tracks {
		out = append(out, *track)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
