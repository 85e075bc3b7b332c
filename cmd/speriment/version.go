package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/speriment"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of speriment",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "speriment version %s\n", strings.TrimSpace(speriment.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
