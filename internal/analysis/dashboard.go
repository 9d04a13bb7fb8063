package analysis

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteDashboard renders an interactive HTML page with the run's class
// counts and track lifetime distribution. Useful for eyeballing a run
// without pulling PNGs off the machine.
func WriteDashboard(path string, summary RunSummary, durations []float64) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Run %s", summary.RunID)

	page.AddCharts(classCountBar(summary), durationBar(durations))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func classCountBar(summary RunSummary) *charts.Bar {
	classes := make([]string, 0, len(summary.ClassCounts))
	for class := range summary.ClassCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	data := make([]opts.BarData, len(classes))
	for i, class := range classes {
		data[i] = opts.BarData{Value: summary.ClassCounts[class]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Unique objects per class",
		Subtitle: fmt.Sprintf("%d tracks, run %s", summary.UniqueTracks, summary.RunID),
	}))
	bar.SetXAxis(classes).AddSeries("unique objects", data)
	return bar
}

// durationBar buckets track lifetimes into fixed-width bins rendered as a
// bar chart (echarts has no native histogram series).
func durationBar(durations []float64) *charts.Bar {
	const binWidth = 10 // frames

	bins := make(map[int]int)
	maxBin := 0
	for _, d := range durations {
		bin := int(d) / binWidth
		bins[bin]++
		if bin > maxBin {
			maxBin = bin
		}
	}

	labels := make([]string, 0, maxBin+1)
	data := make([]opts.BarData, 0, maxBin+1)
	for bin := 0; bin <= maxBin; bin++ {
		labels = append(labels, fmt.Sprintf("%d-%d", bin*binWidth, (bin+1)*binWidth-1))
		data = append(data, opts.BarData{Value: bins[bin]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Track lifetime distribution",
		Subtitle: "frames tracked per object",
	}))
	bar.SetXAxis(labels).AddSeries("tracks", data)
	return bar
}
