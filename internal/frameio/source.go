package frameio

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kerbside-data/object.report/internal/monitoring"
	"github.com/kerbside-data/object.report/internal/perception"
	"github.com/kerbside-data/object.report/internal/pipeline"
)

// ScanFrameFiles walks root recursively and returns the paths of all
// supported frame files (.csv, .pcd) in lexical order. Lexical order is
// the frame order: capture tooling writes zero-padded sequence names.
func ScanFrameFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".pcd":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFrame dispatches on file extension.
func ReadFrame(path string, index int) (perception.Frame, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcd":
		return ReadPCDFrame(path, index)
	default:
		return ReadCSVFrame(path, index)
	}
}

// StreamFrames loads the given files in order and streams them as
// pipeline inputs. Loading faults do not stop the stream: the faulty
// frame is forwarded with its error so the pipeline ages tracks through
// it. The channel closes after the last file or on context cancellation.
func StreamFrames(ctx context.Context, paths []string) <-chan pipeline.FrameInput {
	out := make(chan pipeline.FrameInput)
	go func() {
		defer close(out)
		for i, path := range paths {
			frame, rejected, err := ReadFrame(path, i)
			if err != nil {
				monitoring.Opsf("[frameio] frame %d (%s): %v", i, path, err)
			} else if rejected > 0 {
				monitoring.Diagf("[frameio] frame %d (%s): rejected %d malformed points", i, path, rejected)
			}
			select {
			case out <- pipeline.FrameInput{Frame: frame, DataQualityEvents: rejected, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
