package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteClassCountChart renders a bar chart of unique objects per class to
// a PNG file.
func WriteClassCountChart(path string, classCounts map[string]int) error {
	classes := make([]string, 0, len(classCounts))
	for class := range classCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	values := make(plotter.Values, len(classes))
	for i, class := range classes {
		values[i] = float64(classCounts[class])
	}

	p := plot.New()
	p.Title.Text = "Unique objects per class"
	p.Y.Label.Text = "Unique objects"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("build class count chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(classes...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save class count chart: %w", err)
	}
	return nil
}

// WriteDurationHistogram renders the distribution of track lifetimes
// (frames tracked) to a PNG file.
func WriteDurationHistogram(path string, durations []float64) error {
	if len(durations) == 0 {
		return fmt.Errorf("no track durations to plot")
	}

	p := plot.New()
	p.Title.Text = "Track lifetime distribution"
	p.X.Label.Text = "Frames tracked"
	p.Y.Label.Text = "Tracks"

	hist, err := plotter.NewHist(plotter.Values(durations), 30)
	if err != nil {
		return fmt.Errorf("build duration histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save duration histogram: %w", err)
	}
	return nil
}

// WriteCharts writes both PNG charts into dir, returning the paths.
func WriteCharts(dir string, summary RunSummary, durations []float64) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	classPath := filepath.Join(dir, "unique_object_counts.png")
	if err := WriteClassCountChart(classPath, summary.ClassCounts); err != nil {
		return nil, err
	}
	paths := []string{classPath}

	if len(durations) > 0 {
		histPath := filepath.Join(dir, "tracking_durations_histogram.png")
		if err := WriteDurationHistogram(histPath, durations); err != nil {
			return nil, err
		}
		paths = append(paths, histPath)
	}
	return paths, nil
}
