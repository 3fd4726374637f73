package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/cli"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes the engine and the user store as a JSON API over HTTP, with Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dir, _ := cmd.Flags().GetString("dir")
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := cli.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if dir != "" {
			cfg.Sequences.Dir = dir
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		cfg.Log.Format = "json"
		logger := cli.CreateLogger(cfg, debug)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			extra     []parley.Option
			handlerOp []httpAdapter.Option
		)
		handlerOp = append(handlerOp, httpAdapter.WithLogger(logger))
		if cfg.HTTP.Metrics {
			reg := prometheus.NewRegistry()
			metrics := observability.NewMetrics(reg)
			extra = append(extra, parley.WithLifecycleHooks(metrics.Hooks()))
			handlerOp = append(handlerOp, httpAdapter.WithMetrics(metrics.Handler()))
		}

		if len(cfg.HTTP.Redact) > 0 {
			redact, err := middleware.NewRedactMiddleware(cfg.HTTP.Redact)
			if err != nil {
				return err
			}
			handlerOp = append(handlerOp, httpAdapter.WithStoreView(redact))
		}

		app, err := cli.NewApp(ctx, cfg, logger, extra...)
		if err != nil {
			return err
		}
		defer app.Close()

		if cfg.Sequences.Watch {
			go func() {
				if err := app.Engine.Watch(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("sequence watcher stopped", "err", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(app.Engine, handlerOp...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting parley server", "addr", srv.Addr, "sequences", cfg.Sequences.Dir, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("Shutdown started")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("Parley server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides config, e.g. :8080)")
}
