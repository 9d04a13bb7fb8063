package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kerbside-data/object.report/internal/perception"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTuningConfig_PartialOverrides(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{
		"ransac_inlier_threshold": 0.3,
		"dbscan_eps": 0.7,
		"gate_distance": 3.5,
		"workers": 8
	}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}

	want := perception.DefaultRANSACParams()
	want.InlierThreshold = 0.3
	if diff := cmp.Diff(want, cfg.RANSACParams()); diff != "" {
		t.Fatalf("RANSACParams mismatch (-want +got):\n%s", diff)
	}

	if got := cfg.DBSCANParams(); got.Eps != 0.7 || got.MinPts != perception.DefaultDBSCANMinPts {
		t.Fatalf("DBSCANParams: %+v", got)
	}
	if got := cfg.TrackingConfig(); got.GateDistance != 3.5 {
		t.Fatalf("gate distance: %f", got.GateDistance)
	}
	if cfg.GetWorkers() != 8 {
		t.Fatalf("workers: %d", cfg.GetWorkers())
	}
}

func TestLoadTuningConfig_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}

	if diff := cmp.Diff(perception.DefaultClassifierThresholds(), cfg.ClassifierThresholds()); diff != "" {
		t.Fatalf("defaults not preserved (-want +got):\n%s", diff)
	}
	if cfg.GetWorkers() != 4 {
		t.Fatalf("default workers: %d", cfg.GetWorkers())
	}
	if cfg.GetVoxelLeafSize() != 0 {
		t.Fatalf("default voxel leaf size: %f", cfg.GetVoxelLeafSize())
	}
}

func TestLoadTuningConfig_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"negative eps", `{"dbscan_eps": -1}`},
		{"zero gate", `{"gate_distance": 0}`},
		{"grace inversion", `{"miss_grace": 5, "lost_grace": 2}`},
		{"zero workers", `{"workers": 0}`},
		{"negative voxel", `{"voxel_leaf_size": -0.1}`},
		{"bad confidence", `{"ransac_confidence": 1.5}`},
	}
	for _, tc := range cases {
		path := writeConfig(t, "tuning.json", tc.contents)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadTuningConfig_RejectsWrongExtension(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", `{}`)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected extension error")
	}
}

func TestLoadTuningConfig_RejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"dbscan_eps": `)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadTuningConfig_MissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected stat error")
	}
}
