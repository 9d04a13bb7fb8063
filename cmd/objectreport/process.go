package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kerbside-data/object.report/internal/config"
	"github.com/kerbside-data/object.report/internal/frameio"
	"github.com/kerbside-data/object.report/internal/monitoring"
	"github.com/kerbside-data/object.report/internal/pipeline"
	"github.com/kerbside-data/object.report/internal/report"
)

var processFlags struct {
	dataDir    string
	outDir     string
	dbPath     string
	configPath string
	workers    int
	seed       int64
	verbose    bool
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the detection and tracking pipeline over a frame directory",
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processFlags.dataDir, "data", "d", "", "directory of frame files (.csv or .pcd)")
	processCmd.Flags().StringVarP(&processFlags.outDir, "out", "o", "output", "directory for per-frame JSON reports")
	processCmd.Flags().StringVar(&processFlags.dbPath, "db", "objectreport.db", "path to the SQLite report database")
	processCmd.Flags().StringVarP(&processFlags.configPath, "config", "c", "", "optional tuning config JSON")
	processCmd.Flags().IntVarP(&processFlags.workers, "workers", "w", 0, "per-frame worker pool size (0 = config default)")
	processCmd.Flags().Int64Var(&processFlags.seed, "seed", 1, "seed for the randomized ground fit")
	processCmd.Flags().BoolVarP(&processFlags.verbose, "verbose", "v", false, "enable diagnostic logging")

	processCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	writers := monitoring.LogWriters{Ops: os.Stderr}
	if processFlags.verbose {
		writers.Diag = os.Stderr
	}
	monitoring.SetLogWriters(writers)

	tuning := config.EmptyTuningConfig()
	if processFlags.configPath != "" {
		loaded, err := config.LoadTuningConfig(processFlags.configPath)
		if err != nil {
			return err
		}
		tuning = loaded
	}

	workers := tuning.GetWorkers()
	if processFlags.workers > 0 {
		workers = processFlags.workers
	}

	p, err := pipeline.New(pipeline.Config{
		RANSAC:        tuning.RANSACParams(),
		DBSCAN:        tuning.DBSCANParams(),
		Classifier:    tuning.ClassifierThresholds(),
		Tracking:      tuning.TrackingConfig(),
		Workers:       workers,
		VoxelLeafSize: tuning.GetVoxelLeafSize(),
		Seed:          processFlags.seed,
	})
	if err != nil {
		return err
	}

	paths, err := frameio.ScanFrameFiles(processFlags.dataDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no frame files found under %s", processFlags.dataDir)
	}
	monitoring.Opsf("[process] found %d frames under %s", len(paths), processFlags.dataDir)

	jsonSink, err := report.NewJSONWriter(processFlags.outDir)
	if err != nil {
		return err
	}
	store, err := report.OpenStore(processFlags.dbPath, processFlags.dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames := frameio.StreamFrames(ctx, paths)
	if err := p.Run(ctx, frames, report.MultiSink{jsonSink, store}); err != nil {
		return err
	}
	if err := store.FinishRun(); err != nil {
		return err
	}

	created, terminated := p.Tracker().Counts()
	monitoring.Opsf("[process] run %s complete: %d frames, %d tracks created, %d terminated, %d still live",
		store.RunID(), len(paths), created, terminated, p.Tracker().LiveCount())
	fmt.Printf("run %s: %d frames processed, %d tracks created\n", store.RunID(), len(paths), created)
	return nil
}
