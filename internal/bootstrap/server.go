package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/matchbooking/api"
	"github.com/Domenick1991/matchbooking/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Run serves the HTTP API and blocks until ctx is cancelled or the server
// fails. On cancellation in-flight requests get the configured grace period.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, services api.Services) error {
	gin.SetMode(gin.ReleaseMode)
	srv := newServer(cfg, logger, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
		defer cancel()
		logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newServer(cfg *config.Config, logger *slog.Logger, services api.Services) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(logger, services),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
