// Package config loads and validates the pipeline's tuning parameters.
// Every threshold the detection and tracking stages use is injected from
// here; nothing is hardcoded per deployment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kerbside-data/object.report/internal/perception"
	"github.com/kerbside-data/object.report/internal/tracking"
)

// TuningConfig is the root configuration. All fields are optional
// pointers: fields omitted from the JSON file keep their defaults, so
// partial configs are safe. Invalid values are fatal at startup, before
// any frame is processed.
type TuningConfig struct {
	// Ground segmentation (randomized plane consensus)
	RANSACMaxIterations   *int     `json:"ransac_max_iterations,omitempty"`
	RANSACInlierThreshold *float64 `json:"ransac_inlier_threshold,omitempty"`
	RANSACMinInlierRatio  *float64 `json:"ransac_min_inlier_ratio,omitempty"`
	RANSACConfidence      *float64 `json:"ransac_confidence,omitempty"`

	// Clustering
	DBSCANEps     *float64 `json:"dbscan_eps,omitempty"`
	DBSCANMinPts  *int     `json:"dbscan_min_points,omitempty"`
	VoxelLeafSize *float64 `json:"voxel_leaf_size,omitempty"`

	// Classification thresholds
	MinClusterPoints       *int     `json:"min_cluster_points,omitempty"`
	PedestrianHeightMax    *float64 `json:"pedestrian_height_max,omitempty"`
	PedestrianFootprintMax *float64 `json:"pedestrian_footprint_max,omitempty"`
	PedestrianMinPoints    *int     `json:"pedestrian_min_points,omitempty"`
	CyclistHeightMin       *float64 `json:"cyclist_height_min,omitempty"`
	CyclistHeightMax       *float64 `json:"cyclist_height_max,omitempty"`
	CyclistElongationMin   *float64 `json:"cyclist_elongation_min,omitempty"`
	CarFootprintMin        *float64 `json:"car_footprint_min,omitempty"`
	CarFootprintMax        *float64 `json:"car_footprint_max,omitempty"`
	CarHeightMin           *float64 `json:"car_height_min,omitempty"`
	CarHeightMax           *float64 `json:"car_height_max,omitempty"`

	// Tracking
	GateDistance *float64 `json:"gate_distance,omitempty"`
	MissGrace    *int     `json:"miss_grace,omitempty"`
	LostGrace    *int     `json:"lost_grace,omitempty"`

	// Pipeline
	Workers *int `json:"workers,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset, meaning
// every accessor yields its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// have a .json extension and stay under the size cap.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every configured value by materializing the typed
// parameter structs and running their validators. This is the fail-fast
// gate: the pipeline never starts on an invalid config.
func (c *TuningConfig) Validate() error {
	if err := c.RANSACParams().Validate(); err != nil {
		return err
	}
	if err := c.DBSCANParams().Validate(); err != nil {
		return err
	}
	if err := c.ClassifierThresholds().Validate(); err != nil {
		return err
	}
	if err := c.TrackingConfig().Validate(); err != nil {
		return err
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", *c.Workers)
	}
	if c.VoxelLeafSize != nil && *c.VoxelLeafSize < 0 {
		return fmt.Errorf("voxel_leaf_size must be >= 0, got %f", *c.VoxelLeafSize)
	}
	return nil
}

// RANSACParams materializes the ground segmentation parameters.
func (c *TuningConfig) RANSACParams() perception.RANSACParams {
	p := perception.DefaultRANSACParams()
	if c.RANSACMaxIterations != nil {
		p.MaxIterations = *c.RANSACMaxIterations
	}
	if c.RANSACInlierThreshold != nil {
		p.InlierThreshold = *c.RANSACInlierThreshold
	}
	if c.RANSACMinInlierRatio != nil {
		p.MinInlierRatio = *c.RANSACMinInlierRatio
	}
	if c.RANSACConfidence != nil {
		p.Confidence = *c.RANSACConfidence
	}
	return p
}

// DBSCANParams materializes the clustering parameters.
func (c *TuningConfig) DBSCANParams() perception.DBSCANParams {
	p := perception.DefaultDBSCANParams()
	if c.DBSCANEps != nil {
		p.Eps = *c.DBSCANEps
	}
	if c.DBSCANMinPts != nil {
		p.MinPts = *c.DBSCANMinPts
	}
	return p
}

// ClassifierThresholds materializes the classification cutoffs.
func (c *TuningConfig) ClassifierThresholds() perception.ClassifierThresholds {
	t := perception.DefaultClassifierThresholds()
	if c.MinClusterPoints != nil {
		t.MinClusterPoints = *c.MinClusterPoints
	}
	if c.PedestrianHeightMax != nil {
		t.PedestrianHeightMax = *c.PedestrianHeightMax
	}
	if c.PedestrianFootprintMax != nil {
		t.PedestrianFootprintMax = *c.PedestrianFootprintMax
	}
	if c.PedestrianMinPoints != nil {
		t.PedestrianMinPoints = *c.PedestrianMinPoints
	}
	if c.CyclistHeightMin != nil {
		t.CyclistHeightMin = *c.CyclistHeightMin
	}
	if c.CyclistHeightMax != nil {
		t.CyclistHeightMax = *c.CyclistHeightMax
	}
	if c.CyclistElongationMin != nil {
		t.CyclistElongationMin = *c.CyclistElongationMin
	}
	if c.CarFootprintMin != nil {
		t.CarFootprintMin = *c.CarFootprintMin
	}
	if c.CarFootprintMax != nil {
		t.CarFootprintMax = *c.CarFootprintMax
	}
	if c.CarHeightMin != nil {
		t.CarHeightMin = *c.CarHeightMin
	}
	if c.CarHeightMax != nil {
		t.CarHeightMax = *c.CarHeightMax
	}
	return t
}

// TrackingConfig materializes the tracker parameters.
func (c *TuningConfig) TrackingConfig() tracking.Config {
	t := tracking.DefaultConfig()
	if c.GateDistance != nil {
		t.GateDistance = *c.GateDistance
	}
	if c.MissGrace != nil {
		t.MissGrace = *c.MissGrace
	}
	if c.LostGrace != nil {
		t.LostGrace = *c.LostGrace
	}
	return t
}

// GetWorkers returns the per-frame worker pool size or the default.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// GetVoxelLeafSize returns the voxel downsampling leaf size; zero
// disables downsampling.
func (c *TuningConfig) GetVoxelLeafSize() float64 {
	if c.VoxelLeafSize == nil {
		return 0
	}
	return *c.VoxelLeafSize
}
