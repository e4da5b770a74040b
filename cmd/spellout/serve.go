package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/cli"
	"github.com/aretw0/spellout/internal/metrics"
	httpAdapter "github.com/aretw0/spellout/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes derivation sessions as a JSON API over HTTP, with Prometheus metrics on /metrics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		cfg := config(cmd)
		logger, err := cfg.Logger()
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		stats, err := metrics.New(reg, logger)
		if err != nil {
			return err
		}

		mgr, backend, err := cfg.NewManager(logger, spellout.WithLifecycleHooks(stats.Hooks()))
		if err != nil {
			return err
		}
		defer backend.Close()

		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(mgr,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Spellout Server on %s (store: %s)\n", srv.Addr, cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				if closeErr := srv.Close(); closeErr != nil {
					return errors.Join(err, closeErr)
				}
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Spellout Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
