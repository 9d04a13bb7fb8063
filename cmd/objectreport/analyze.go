package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kerbside-data/object.report/internal/analysis"
	"github.com/kerbside-data/object.report/internal/report"
)

var analyzeFlags struct {
	dbPath    string
	runID     string
	chartsDir string
	dashboard bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize a finished run: unique objects per class, track lifetimes, charts",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.dbPath, "db", "objectreport.db", "path to the SQLite report database")
	analyzeCmd.Flags().StringVar(&analyzeFlags.runID, "run", "", "run ID to analyze (default: latest run)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.chartsDir, "charts", "", "directory for PNG charts (empty = skip)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.dashboard, "dashboard", false, "also write an HTML dashboard next to the charts")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	db, err := report.OpenDB(analyzeFlags.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := analyzeFlags.runID
	if runID == "" {
		runID, err = report.LatestRunID(db)
		if err != nil {
			return err
		}
	}

	summaries, err := report.TrackSummaries(db, runID)
	if err != nil {
		return err
	}

	summary := analysis.Summarize(runID, summaries)
	durations := analysis.Durations(summaries)

	fmt.Printf("run %s: %d unique objects\n", summary.RunID, summary.UniqueTracks)
	classes := make([]string, 0, len(summary.ClassCounts))
	for class := range summary.ClassCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Printf("  %-12s %d\n", class, summary.ClassCounts[class])
	}
	if summary.UniqueTracks > 0 {
		fmt.Printf("track lifetime (frames): mean %.1f, median %.1f, p90 %.1f\n",
			summary.MeanDuration, summary.MedianDuration, summary.P90Duration)
		fmt.Printf("longest track: id %d (%s), %d frames\n",
			summary.Longest.TrackID, summary.Longest.Class, summary.Longest.DurationFrames())
	}

	if analyzeFlags.chartsDir != "" {
		paths, err := analysis.WriteCharts(analyzeFlags.chartsDir, summary, durations)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("wrote %s\n", p)
		}
		if analyzeFlags.dashboard {
			htmlPath := filepath.Join(analyzeFlags.chartsDir, "run_dashboard.html")
			if err := analysis.WriteDashboard(htmlPath, summary, durations); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", htmlPath)
		}
	}
	return nil
}
