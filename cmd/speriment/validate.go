package main

import (
	"fmt"

	"github.com/aretw0/speriment/internal/cli"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <document>...",
	Short: "Check experiment documents without writing artifacts",
	Long:  `Runs the full compilation (structure, expansion and schema gate) for every document and reports the result per file.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cli.NewCompiler(app.cfg.Compile, app.logger, domain.CompileHooks{})
		if err != nil {
			return err
		}

		failed := 0
		for _, path := range args {
			art, _, err := cli.Compile(c, path, app.cfg.Compile.Seed)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d pages) ✅\n", path, art.Pages)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
