package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serveCommand runs the daily cycle on schedule and serves metrics
func serveCommand(a *app) *cobra.Command {

	var at string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tray cycle every day and serve Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {

			if at == "" {
				at = a.settings.Schedule.DailyTime
			}

			registry := newRegistry()

			runner, closeFn, err := a.newRunner(registry)

			if err != nil {
				return err
			}

			defer closeFn()

			eg, ctx := errgroup.WithContext(cmd.Context())

			if listen := a.settings.Metrics.Listen; listen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

				srv := &http.Server{
					Addr:              listen,
					Handler:           mux,
					ReadHeaderTimeout: 10 * time.Second,
				}

				eg.Go(func() error {
					a.log.Info("serving metrics", "listen", listen)

					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}

					return nil
				})

				eg.Go(func() error {
					<-ctx.Done()

					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					return srv.Shutdown(shutdownCtx)
				})
			}

			eg.Go(func() error {
				return runner.Serve(ctx, at)
			})

			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Daily run time HH:MM, overrides schedule.daily_time")

	return cmd
}
