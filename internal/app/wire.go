package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexwatch/internal/cache/redis"
	"github.com/alanyoungcy/dexwatch/internal/config"
	"github.com/alanyoungcy/dexwatch/internal/domain"
	"github.com/alanyoungcy/dexwatch/internal/eth"
	"github.com/alanyoungcy/dexwatch/internal/feed"
	"github.com/alanyoungcy/dexwatch/internal/projection"
	"github.com/alanyoungcy/dexwatch/internal/server/ws"
	"github.com/alanyoungcy/dexwatch/internal/service"
	"github.com/alanyoungcy/dexwatch/internal/store"
)

// Dependencies bundles everything the application needs to run. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store       *store.Store
	Engine      *projection.Engine
	Views       *service.ViewService
	Balances    *service.BalanceService
	Coordinator *feed.Coordinator
	SignalBus   domain.SignalBus // nil when Redis is not configured
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Chain client ---
	backend, err := eth.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: ethereum: %w", err)
	}
	closers = append(closers, backend.Close)

	exchange := common.HexToAddress(cfg.Ethereum.ExchangeAddress)
	token := common.HexToAddress(cfg.Ethereum.TokenAddress)

	client, err := eth.NewClient(backend, exchange, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: exchange client: %w", err)
	}

	// --- Redis (optional) ---
	var balanceCache domain.BalanceCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		balanceCache = redis.NewBalanceCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Read model ---
	deps.Store = store.New(logger)
	deps.Engine = projection.New(cfg.Location())
	deps.Views = service.NewViewService(deps.Store, deps.Engine)
	deps.Balances = service.NewBalanceService(client, balanceCache, token, logger)

	// --- Feed coordinator ---
	deps.Coordinator = feed.New(client, deps.Store, feed.Hooks{
		OnUpdate:   updateNotifier(deps.SignalBus, logger),
		OnTransfer: transferHook(deps.Balances, deps.SignalBus, logger),
		OnError: func(err error) {
			logger.Warn("feed delivery error", slog.String("error", err.Error()))
		},
	}, logger)

	return deps, cleanup, nil
}

// updateNotifier publishes a small envelope whenever the store changed, so
// WebSocket clients know to re-query the projections.
func updateNotifier(bus domain.SignalBus, logger *slog.Logger) func() {
	if bus == nil {
		return nil
	}
	payload := []byte(`{"type":"update"}`)
	return func() {
		if err := bus.Publish(context.Background(), ws.ChannelUpdates, payload); err != nil {
			logger.Warn("publish update signal failed", slog.String("error", err.Error()))
		}
	}
}

// transferHook invalidates the account's cached balances on Deposit and
// Withdraw events and announces the transfer on the signal bus.
func transferHook(balances *service.BalanceService, bus domain.SignalBus, logger *slog.Logger) func(context.Context, domain.Transfer) {
	return func(ctx context.Context, transfer domain.Transfer) {
		balances.Invalidate(ctx, transfer.User)

		if bus == nil {
			return
		}
		payload, err := json.Marshal(map[string]any{
			"type":     "transfer",
			"user":     transfer.User.Hex(),
			"token":    transfer.Token.Hex(),
			"amount":   transfer.Amount.String(),
			"balance":  transfer.Balance.String(),
			"withdraw": transfer.Withdraw,
		})
		if err != nil {
			return
		}
		if err := bus.Publish(ctx, ws.ChannelTransfers, payload); err != nil {
			logger.Warn("publish transfer signal failed", slog.String("error", err.Error()))
		}
	}
}
