package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/loadstate/api"
	"github.com/tailored-agentic-units/loadstate/loader"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve URL...",
		Short: "Check URLs and serve their load states over HTTP",
		Long: `Runs the same batch as check, then serves the store on /states with
Prometheus metrics on /metrics. POST /refresh re-runs the batch, which
moves activated records through reloading.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLoader(opts, cmd, func(cfg *loader.Config) {
				cfg.Metrics.Enabled = true
				if addr != "" {
					cfg.HTTP.Addr = addr
				}
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c := newChecker(l, args)
			if _, err := c.start(ctx); err != nil {
				return err
			}

			logger := opts.logger(cmd)
			refresh := func(ctx context.Context) {
				if _, err := c.start(ctx); err != nil {
					logger.Error("refresh failed", "error", err)
				}
			}

			if !opts.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			router := api.NewRouter(l.Store(),
				api.WithGatherer(l.Gatherer()),
				api.WithRefresher(refresh),
			)

			return listen(ctx, logger, l.Config().HTTP.Addr, router)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func listen(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving load states", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
