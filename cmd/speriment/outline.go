package main

import (
	"fmt"
	"os"

	"github.com/aretw0/speriment/internal/cli"
	"github.com/aretw0/speriment/internal/presentation/tui"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <document>",
	Short: "Print a readable outline of the expanded experiment",
	Long: `Expands the document and describes every block and page as markdown.
On a terminal the markdown is rendered; use --raw to get the source.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		c, err := cli.NewCompiler(app.cfg.Compile, app.logger, domain.CompileHooks{})
		if err != nil {
			return err
		}
		exp, err := cli.Expand(c, args[0], app.cfg.Compile.Seed)
		if err != nil {
			return err
		}
		markdown := tui.Outline(exp)

		f, isFile := cmd.OutOrStdout().(*os.File)
		if raw || !isFile || !term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}

		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 80
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		out, err := render(markdown)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().Bool("raw", false, "Print markdown source even on a terminal")
}
