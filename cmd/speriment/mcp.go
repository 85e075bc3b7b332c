package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/aretw0/speriment/internal/cli"
	"github.com/aretw0/speriment/pkg/adapters/mcp"
	"github.com/aretw0/speriment/pkg/observability"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the compiler as an MCP Server.
This allows AI agents to compile and validate experiment documents as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		if cmd.Flags().Changed("addr") {
			app.cfg.Serve.MCPAddr, _ = cmd.Flags().GetString("addr")
		}
		addr := app.cfg.Serve.MCPAddr
		if addr == "" {
			addr = "localhost:8081"
		}
		logger := app.logger

		c, err := cli.NewCompiler(app.cfg.Compile, logger, observability.LoggingHooks(logger))
		if err != nil {
			return err
		}
		store, closeStore, err := cli.OpenStore(app.cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := mcp.NewServer(c, store)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(cmd.ErrOrStderr())
			logger.Info("Starting speriment MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting speriment MCP Server (SSE)", "addr", addr)
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			if err := srv.ServeSSE(sigCtx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "localhost:8081", "Address to listen on (only for SSE)")
}
