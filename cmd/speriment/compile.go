package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/speriment/internal/cli"
	"github.com/aretw0/speriment/pkg/observability"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <document>",
	Short: "Compile an experiment document into a JSON artifact",
	Long: `Validates, expands and encodes the document. The artifact is written to
stdout (or --out) and, when a store is configured, saved under its variable name.

With --watch the document is recompiled every time it changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out, _ := cmd.Flags().GetString("out")
		nameFlag, _ := cmd.Flags().GetString("name")
		watch, _ := cmd.Flags().GetBool("watch")
		if cmd.Flags().Changed("format") {
			app.cfg.Compile.Format, _ = cmd.Flags().GetString("format")
		}
		if cmd.Flags().Changed("store") {
			app.cfg.Store.Type, _ = cmd.Flags().GetString("store")
		}
		if err := app.cfg.Validate(); err != nil {
			return err
		}

		c, err := cli.NewCompiler(app.cfg.Compile, app.logger, observability.LoggingHooks(app.logger))
		if err != nil {
			return err
		}
		store, closeStore, err := cli.OpenStore(app.cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		once := func() error {
			art, doc, err := cli.Compile(c, path, app.cfg.Compile.Seed)
			if err != nil {
				return err
			}
			name := cli.ArtifactName(nameFlag, doc, path)

			if store != nil {
				if err := store.Save(sigCtx, name, art.JSON); err != nil {
					return fmt.Errorf("failed to store artifact: %w", err)
				}
				cli.PrintSystemMessage(cmd.ErrOrStderr(), "Stored '%s' (%d pages) in %s store.", name, art.Pages, app.cfg.Store.Type)
				if out == "" {
					return nil
				}
			}

			data, err := cli.Render(art, app.cfg.Compile.Format, name)
			if err != nil {
				return err
			}
			return cli.WriteOutput(cmd.OutOrStdout(), out, data)
		}

		if !watch {
			return once()
		}
		cli.PrintSystemMessage(cmd.ErrOrStderr(), "Watching '%s'.", path)
		err = cli.Watch(sigCtx, path, app.logger, once)
		if errors.Is(err, context.Canceled) {
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "Stopped watching (%v).", sigCtx.Signal())
		}
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringP("out", "o", "", "Write the artifact to this file instead of stdout")
	compileCmd.Flags().StringP("name", "n", "", "Host variable and store name (default: document name, then file name)")
	compileCmd.Flags().String("format", "json", "Output format: json or script")
	compileCmd.Flags().String("store", "none", "Artifact store: none, memory, file or redis")
	compileCmd.Flags().BoolP("watch", "w", false, "Recompile whenever the document changes")
}
