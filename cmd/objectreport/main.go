// Command objectreport runs the point-cloud object detection and tracking
// pipeline over a directory of captured frames, and summarizes finished
// runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "objectreport",
	Short:         "Detect, classify and track objects in point-cloud frame captures",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "objectreport: %v\n", err)
		os.Exit(1)
	}
}
