package main

import (
	"fmt"

	"github.com/aretw0/speriment/internal/cli"
	"github.com/aretw0/speriment/internal/presentation/graph"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <document>",
	Short: "Export the experiment structure as a Mermaid diagram",
	Long:  `Expands the document and outputs a Mermaid flowchart (graph TD) with blocks as subgraphs and run conditions as dotted edges.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		highlight, _ := cmd.Flags().GetStringSlice("highlight")

		c, err := cli.NewCompiler(app.cfg.Compile, app.logger, domain.CompileHooks{})
		if err != nil {
			return err
		}
		exp, err := cli.Expand(c, args[0], app.cfg.Compile.Seed)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if len(highlight) > 0 {
			overlay = &graph.Overlay{Highlight: highlight}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(exp, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("highlight", nil, "Page ids to highlight")
}
