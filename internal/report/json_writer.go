// Package report persists per-frame pipeline output: one structured JSON
// record per frame for downstream tooling, plus a SQLite store keyed by
// run for aggregate analysis.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kerbside-data/object.report/internal/pipeline"
)

// JSONWriter writes one report file per frame into a directory. File
// names carry the frame index (frame_0001_analysis.json) so lexical order
// matches frame order.
type JSONWriter struct {
	dir string
}

// NewJSONWriter creates the output directory if needed.
func NewJSONWriter(dir string) (*JSONWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &JSONWriter{dir: dir}, nil
}

// EmitFrameReport writes the frame's report. Zero-detection frames still
// produce a file with an empty detection list.
func (w *JSONWriter) EmitFrameReport(report *pipeline.FrameReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal frame %d report: %w", report.FrameIndex, err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("frame_%04d_analysis.json", report.FrameIndex))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write frame %d report: %w", report.FrameIndex, err)
	}
	return nil
}

// MultiSink fans a frame report out to several sinks, stopping at the
// first error.
type MultiSink []pipeline.Sink

// EmitFrameReport implements pipeline.Sink.
func (m MultiSink) EmitFrameReport(report *pipeline.FrameReport) error {
	for _, sink := range m {
		if err := sink.EmitFrameReport(report); err != nil {
			return err
		}
	}
	return nil
}
