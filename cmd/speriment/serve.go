package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/speriment"
	"github.com/aretw0/speriment/internal/cli"
	"github.com/aretw0/speriment/internal/presentation/tui"
	sphttp "github.com/aretw0/speriment/pkg/adapters/http"
	"github.com/aretw0/speriment/pkg/observability"
	"github.com/aretw0/speriment/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the compilation HTTP server",
	Long: `Exposes the compiler over HTTP: POST /compile and /validate take a document,
GET /artifacts lists stored artifacts and GET /metrics serves Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			app.cfg.Serve.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics") {
			app.cfg.Serve.Metrics, _ = cmd.Flags().GetBool("metrics")
		}
		if cmd.Flags().Changed("store") {
			app.cfg.Store.Type, _ = cmd.Flags().GetString("store")
		}
		if err := app.cfg.Validate(); err != nil {
			return err
		}
		logger := app.logger

		hooks := observability.LoggingHooks(logger)
		var opts []sphttp.Option
		var storeMiddleware []middleware.Middleware
		if app.cfg.Serve.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewMetrics(reg)
			hooks = observability.Combine(metrics.Hooks(), hooks)
			storeMiddleware = append(storeMiddleware, middleware.NewStoreMetrics(reg).Middleware(app.cfg.Store.Type))
			opts = append(opts, sphttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
		}

		c, err := cli.NewCompiler(app.cfg.Compile, logger, hooks)
		if err != nil {
			return err
		}
		store, closeStore, err := cli.OpenStore(app.cfg.Store, storeMiddleware...)
		if err != nil {
			return err
		}
		defer closeStore()
		if store != nil {
			opts = append(opts, sphttp.WithStore(store))
		}
		opts = append(opts, sphttp.WithSeed(app.cfg.Compile.Seed), sphttp.WithLogger(logger))

		srv := &http.Server{
			Addr:              app.cfg.Serve.Addr,
			Handler:           sphttp.NewHandler(c, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if app.cfg.Log.Format != "json" {
			tui.PrintBanner(cmd.ErrOrStderr(), speriment.Version)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting speriment server", "addr", srv.Addr, "store", app.cfg.Store.Type, "metrics", app.cfg.Serve.Metrics)
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return err
		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().String("store", "none", "Artifact store: none, memory, file or redis")
}
