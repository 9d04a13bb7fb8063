// Package pipeline sequences the per-frame detection stages and the
// cross-frame tracker over a stream of point-cloud frames.
//
// The detection stages (ground segmentation, clustering, classification)
// are pure functions of one frame and run on a bounded worker pool. The
// tracker is inherently sequential, so worker results pass through a
// reordering buffer keyed by submission order into a single consumer that
// owns the tracker. No other goroutine touches tracker state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/kerbside-data/object.report/internal/monitoring"
	"github.com/kerbside-data/object.report/internal/perception"
	"github.com/kerbside-data/object.report/internal/tracking"
)

// FrameInput carries one frame from the loading collaborator. A non-nil
// Err marks a frame that failed to load: it is processed as an empty
// detection set so the tracker still ages, and its report is degraded.
type FrameInput struct {
	Frame perception.Frame
	// DataQualityEvents counts malformed points the loader rejected.
	DataQualityEvents int
	Err               error
}

// Centroid is a report-facing 3D position.
type Centroid struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Extents is a report-facing bounding box size.
type Extents struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TrackedDetection is one detection-to-track mapping within a frame report.
type TrackedDetection struct {
	TrackID  int64                 `json:"trackId"`
	Class    perception.ClassLabel `json:"class"`
	Centroid Centroid              `json:"centroid"`
	Extents  Extents               `json:"extents"`
	HitCount int                   `json:"hitCount"`
}

// FrameReport is the per-frame output record. Frames with zero detections
// still emit a report with an empty detection list so downstream consumers
// can distinguish "no frame" from "empty frame".
type FrameReport struct {
	FrameIndex        int                `json:"frameIndex"`
	Degraded          bool               `json:"degraded"`
	DataQualityEvents int                `json:"dataQualityEvents"`
	GroundPlaneFound  bool               `json:"groundPlaneFound"`
	PointCount        int                `json:"pointCount"`
	NonGroundCount    int                `json:"nonGroundCount"`
	ClusterCount      int                `json:"clusterCount"`
	Detections        []TrackedDetection `json:"detections"`
}

// Sink receives completed frame reports in strict frame order.
type Sink interface {
	EmitFrameReport(report *FrameReport) error
}

// Config holds the pipeline's assembled dependencies and parameters.
type Config struct {
	RANSAC     perception.RANSACParams
	DBSCAN     perception.DBSCANParams
	Classifier perception.ClassifierThresholds
	Tracking   tracking.Config

	// Workers sizes the per-frame detection pool.
	Workers int

	// VoxelLeafSize, when > 0, enables voxel downsampling of non-ground
	// points before clustering. Zero disables it.
	VoxelLeafSize float64

	// Seed drives the per-frame random sources for ground segmentation.
	// Each frame derives its own source from Seed and the frame index, so
	// results are reproducible regardless of worker scheduling.
	Seed int64
}

// Pipeline runs frames through detection and tracking.
type Pipeline struct {
	cfg        Config
	classifier *perception.Classifier
	tracker    *tracking.Tracker
}

// New validates the configuration and assembles a pipeline. Configuration
// errors are fatal: they are returned before any frame is processed.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.RANSAC.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if err := cfg.DBSCAN.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if err := cfg.Classifier.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if err := cfg.Tracking.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("pipeline config: workers must be >= 1, got %d", cfg.Workers)
	}
	if cfg.VoxelLeafSize < 0 {
		return nil, fmt.Errorf("pipeline config: voxel_leaf_size must be >= 0, got %f", cfg.VoxelLeafSize)
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: perception.NewClassifier(cfg.Classifier),
		tracker:    tracking.NewTracker(cfg.Tracking),
	}, nil
}

// Tracker exposes the pipeline's tracker for post-run inspection.
func (p *Pipeline) Tracker() *tracking.Tracker { return p.tracker }

// workItem pairs a frame with its submission sequence number. The
// sequence, not the frame index, keys the reordering buffer, so frame
// indices need not be contiguous.
type workItem struct {
	seq   int
	input FrameInput
}

// detectionSet is one frame's detection output awaiting the tracker.
type detectionSet struct {
	seq               int
	frameIndex        int
	detections        []perception.Detection
	dataQualityEvents int
	groundPlaneFound  bool
	degraded          bool
	pointCount        int
	nonGroundCount    int
	clusterCount      int
}

// Run consumes frames until the channel closes or ctx is cancelled, then
// drains in-flight work. Reports are emitted to sink in submission order.
// The first sink error aborts emission and is returned after the drain.
func (p *Pipeline) Run(ctx context.Context, frames <-chan FrameInput, sink Sink) error {
	workCh := make(chan workItem)
	resultCh := make(chan detectionSet, p.cfg.Workers)

	// Dispatcher: assigns sequence numbers. Cancellation stops intake;
	// everything already dispatched still drains.
	go func() {
		defer close(workCh)
		seq := 0
		for {
			select {
			case <-ctx.Done():
				return
			case input, ok := <-frames:
				if !ok {
					return
				}
				select {
				case workCh <- workItem{seq: seq, input: input}:
					seq++
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				resultCh <- p.detect(item)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Single consumer: reorder by sequence, update the tracker, emit.
	var sinkErr error
	pending := make(map[int]detectionSet)
	next := 0
	for result := range resultCh {
		pending[result.seq] = result
		for {
			ds, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			report := p.consume(ds)
			if sinkErr == nil {
				if err := sink.EmitFrameReport(report); err != nil {
					sinkErr = fmt.Errorf("emit report for frame %d: %w", report.FrameIndex, err)
					monitoring.Opsf("[pipeline] %v", sinkErr)
				}
			}
		}
	}

	if sinkErr != nil {
		return sinkErr
	}
	return ctx.Err()
}

// detect runs the pure per-frame stages: ground segmentation, optional
// voxel downsampling, clustering, and classification.
func (p *Pipeline) detect(item workItem) detectionSet {
	ds := detectionSet{
		seq:               item.seq,
		frameIndex:        item.input.Frame.Index,
		dataQualityEvents: item.input.DataQualityEvents,
		degraded:          item.input.DataQualityEvents > 0,
	}

	if item.input.Err != nil {
		// Loading fault: the frame contributes an empty detection set so
		// the tracker still ages existing tracks.
		monitoring.Opsf("[pipeline] frame %d: load failed, processing as empty: %v", ds.frameIndex, item.input.Err)
		ds.degraded = true
		return ds
	}

	points := item.input.Frame.Points
	ds.pointCount = len(points)
	if len(points) == 0 {
		return ds
	}

	rng := rand.New(rand.NewSource(p.cfg.Seed ^ int64(ds.frameIndex)))
	segmenter := perception.NewGroundSegmenter(p.cfg.RANSAC, rng)

	nonGround := points
	_, groundMask, err := segmenter.Segment(points)
	switch {
	case err == nil:
		ds.groundPlaneFound = true
		nonGround = perception.SplitGround(points, groundMask)
	case errors.Is(err, perception.ErrModelFit):
		// Non-fatal: no ground plane this frame, all points pass through.
		monitoring.Diagf("[pipeline] frame %d: %v", ds.frameIndex, err)
	default:
		monitoring.Opsf("[pipeline] frame %d: ground segmentation: %v", ds.frameIndex, err)
	}
	ds.nonGroundCount = len(nonGround)

	if p.cfg.VoxelLeafSize > 0 {
		before := len(nonGround)
		nonGround = perception.VoxelGrid(nonGround, p.cfg.VoxelLeafSize)
		monitoring.Tracef("[pipeline] frame %d: voxel downsample %d -> %d (leaf=%.3fm)",
			ds.frameIndex, before, len(nonGround), p.cfg.VoxelLeafSize)
	}

	clusters := perception.DBSCAN(nonGround, p.cfg.DBSCAN)
	ds.clusterCount = len(clusters)

	ds.detections = p.classifier.ClassifyClusters(ds.frameIndex, nonGround, clusters)
	monitoring.Tracef("[pipeline] frame %d: %d points, %d non-ground, %d clusters, %d detections",
		ds.frameIndex, ds.pointCount, ds.nonGroundCount, ds.clusterCount, len(ds.detections))
	return ds
}

// consume feeds one in-order detection set to the tracker and builds the
// frame's report.
func (p *Pipeline) consume(ds detectionSet) *FrameReport {
	result := p.tracker.Update(ds.frameIndex, ds.detections)

	report := &FrameReport{
		FrameIndex:        ds.frameIndex,
		Degraded:          ds.degraded || result.Rejected > 0,
		DataQualityEvents: ds.dataQualityEvents + result.Rejected,
		GroundPlaneFound:  ds.groundPlaneFound,
		PointCount:        ds.pointCount,
		NonGroundCount:    ds.nonGroundCount,
		ClusterCount:      ds.clusterCount,
		Detections:        make([]TrackedDetection, 0, len(result.Matches)),
	}

	for _, m := range result.Matches {
		d := ds.detections[m.DetectionIndex]
		track := p.tracker.Get(m.TrackID)
		if track == nil {
			continue
		}
		report.Detections = append(report.Detections, TrackedDetection{
			TrackID: m.TrackID,
			Class:   d.Class,
			Centroid: Centroid{
				X: d.CentroidX,
				Y: d.CentroidY,
				Z: d.CentroidZ,
			},
			Extents: Extents{
				Length: d.Length,
				Width:  d.Width,
				Height: d.Height,
			},
			HitCount: track.Hits,
		})
	}

	// Stable report ordering regardless of association order.
	sort.Slice(report.Detections, func(i, j int) bool {
		return report.Detections[i].TrackID < report.Detections[j].TrackID
	})
	return report
}
