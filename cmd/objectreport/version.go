package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbside-data/object.report/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("objectreport %s (commit %s, built %s)\n",
			version.Version, version.GitSHA, version.BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
