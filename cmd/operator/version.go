package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print operator version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("potamoi-operator %s (%s)\n", version, commit)
	},
}
