// Package app provides the top-level application lifecycle for dexwatch. It
// wires together the chain client, raw store, projections, caches, and the
// API server, and runs them until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dexwatch/internal/config"
	"github.com/alanyoungcy/dexwatch/internal/server"
	"github.com/alanyoungcy/dexwatch/internal/server/handler"
	"github.com/alanyoungcy/dexwatch/internal/server/ws"
)

// shutdownTimeout bounds the graceful HTTP shutdown on exit.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the feed
// coordinator and (if enabled) the API server, and blocks until the context
// is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("exchange", a.cfg.Ethereum.ExchangeAddress),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	// Feed: backfill then live event ingestion.
	g.Go(func() error {
		defer deps.Coordinator.Close()
		return deps.Coordinator.Run(ctx)
	})

	// API server.
	if a.cfg.Server.Enabled {
		var hub *ws.Hub
		if deps.SignalBus != nil {
			hub = ws.NewHub(deps.SignalBus, deps.Coordinator, a.logger)
			g.Go(func() error {
				if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}

		srv := server.NewServer(server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		}, server.Handlers{
			Health:  handler.NewHealthHandler(deps.Coordinator, deps.Store),
			Market:  handler.NewMarketHandler(deps.Views, a.logger),
			Account: handler.NewAccountHandler(deps.Views, deps.Balances, a.logger),
		}, hub, a.logger)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
