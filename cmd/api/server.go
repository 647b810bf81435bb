package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Serve runs the HTTP server, the scheduler and the rate limiter sweeper
// until ctx is cancelled, then drains in-flight requests and running jobs.
func (d *Dependencies) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              d.Config.Server.Addr(),
		Handler:           d.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.RateLimiter.Run(gctx)
		return nil
	})

	d.Scheduler.Start()

	g.Go(func() error {
		d.Logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		d.Logger.Info("shutting down", slog.Duration("timeout", d.Config.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		select {
		case <-d.Scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			d.Logger.Warn("scheduled jobs still running at shutdown")
		}
		return nil
	})

	return g.Wait()
}
