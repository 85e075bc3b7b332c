package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/speriment/internal/cli"
	"github.com/spf13/cobra"
)

// app holds what PersistentPreRunE resolved for the running command.
var app struct {
	cfg    *cli.Config
	logger *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "speriment",
	Short: "Speriment compiles psychological experiments into player-ready JSON",
	Long: `Speriment turns a declarative experiment document (blocks, pages, options,
feedback, counterbalancing) into one validated JSON artifact for the experiment player.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := cli.LoadConfig(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("seed") {
			cfg.Compile.Seed, _ = cmd.Flags().GetInt("seed")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := cli.NewLogger(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		app.cfg = cfg
		app.logger = logger
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Project config file (default ./"+cli.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int("seed", 0, "First identifier allocated by the session")
}
