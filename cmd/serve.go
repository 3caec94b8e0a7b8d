package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
)

// newServeCmd creates the 'serve' subcommand: a scheduler loop that runs
// batch checks on an interval, plus an operational HTTP listener exposing
// health and metrics.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the scheduler loop with an ops listener",
		Long: `Runs batch checks on a fixed interval until interrupted. An HTTP
listener serves /healthz and Prometheus /metrics for operators; there is
no policy management API on this surface.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", app.cfg.Ops.Port),
				Handler:           opsRouter(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				app.logger.Info("ops listener started", zap.Int("port", app.cfg.Ops.Port))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					app.logger.Error("ops listener error", zap.Error(err))
					stop()
				}
			}()

			interval := app.cfg.ServeInterval()
			app.logger.Info("scheduler started", zap.Duration("interval", interval))

			runBatch(ctx, app)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case <-ticker.C:
					runBatch(ctx, app)
				}
			}

			app.logger.Info("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.logger.Error("ops listener shutdown error", zap.Error(err))
			}
			app.logger.Info("shutdown complete")
			return nil
		},
	}
}

func runBatch(ctx context.Context, app *application) {
	if _, err := app.batch.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error("batch check failed", zap.Error(err))
	}
}

func opsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}
