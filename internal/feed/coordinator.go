// Package feed orchestrates event ingestion: one bounded historical backfill
// per event kind, then a live subscription that appends single events as they
// arrive. The coordinator owns the raw store's write side; consumers only
// ever see snapshots.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dexwatch/internal/domain"
	"github.com/alanyoungcy/dexwatch/internal/store"
)

// reconnectDelay spaces out resubscription attempts after the live feed drops.
const reconnectDelay = 2 * time.Second

// State is the coordinator lifecycle phase.
type State string

const (
	StateIdle        State = "idle"
	StateBackfilling State = "backfilling"
	StateLive        State = "live"
)

// Hooks are the coordinator's outward notifications. All are optional.
type Hooks struct {
	// OnUpdate fires after any append that changed the store.
	OnUpdate func()
	// OnTransfer fires for Deposit and Withdraw events, which never feed the
	// projections; the receiver invalidates cached balances.
	OnTransfer func(ctx context.Context, transfer domain.Transfer)
	// OnError receives live-delivery errors. Delivery continues after each.
	OnError func(err error)
}

// Coordinator drives Idle → Backfilling → Live. Backfill failures abort Run;
// once live, errors are reported through Hooks.OnError without leaving Live.
type Coordinator struct {
	source domain.EventSource
	store  *store.Store
	hooks  Hooks
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Coordinator in the Idle state.
func New(source domain.EventSource, st *store.Store, hooks Hooks, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		source: source,
		store:  st,
		hooks:  hooks,
		logger: logger.With(slog.String("component", "feed")),
		state:  StateIdle,
		done:   make(chan struct{}),
	}
}

// State reports the current lifecycle phase.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run backfills history, goes live, and blocks until ctx is cancelled or
// Close is called. A backfill or initial subscription failure is returned to
// the caller; retry policy belongs there, not here.
func (c *Coordinator) Run(ctx context.Context) error {
	c.setState(StateBackfilling)
	if err := c.backfill(ctx); err != nil {
		c.setState(StateIdle)
		return err
	}

	sub, err := c.source.Subscribe(ctx)
	if err != nil {
		c.setState(StateIdle)
		return fmt.Errorf("feed: open live subscription: %w", err)
	}

	c.setState(StateLive)
	c.logger.Info("live feed started")

	for {
		err := c.consume(ctx, sub)
		sub.Close()

		switch {
		case errors.Is(err, errTorndown):
			c.logger.Info("live feed stopped")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		// The transport died while live. Report, then resubscribe; the
		// coordinator stays live (degraded) rather than halting.
		c.reportError(err)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.done:
				return nil
			case <-time.After(reconnectDelay):
			}

			sub, err = c.source.Subscribe(ctx)
			if err == nil {
				c.logger.Info("live feed reconnected")
				break
			}
			c.reportError(fmt.Errorf("feed: resubscribe: %w", err))
		}
	}
}

// Close tears down the live subscription and stops further store mutation.
// Safe to call more than once.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// backfill issues the three historical queries concurrently and appends the
// results in the order cancellations, trades, orders.
func (c *Coordinator) backfill(ctx context.Context) error {
	var (
		orders        []domain.RawOrder
		cancellations []domain.Cancellation
		trades        []domain.Trade
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cancellations, err = c.source.CancellationHistory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trades, err = c.source.TradeHistory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = c.source.OrderHistory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("feed: backfill: %w", err)
	}

	added := c.store.AppendCancellations(cancellations)
	added += c.store.AppendTrades(trades)
	added += c.store.AppendOrders(orders)

	c.logger.Info("backfill complete",
		slog.Int("orders", len(orders)),
		slog.Int("cancellations", len(cancellations)),
		slog.Int("trades", len(trades)),
	)

	if added > 0 {
		c.notifyUpdate()
	}
	return nil
}

// errTorndown signals a deliberate stop via Close.
var errTorndown = errors.New("feed: torn down")

// consume applies live events until the subscription's event stream ends.
func (c *Coordinator) consume(ctx context.Context, sub domain.EventSubscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return errTorndown
		case err := <-sub.Err():
			// Malformed single events: report and keep consuming.
			c.reportError(err)
		case ev, ok := <-sub.Events():
			if !ok {
				return domain.ErrSourceGone
			}
			c.apply(ctx, ev)
		}
	}
}

// apply routes one live event into the store or the transfer hook.
func (c *Coordinator) apply(ctx context.Context, ev domain.Event) {
	added := 0
	switch ev.Kind {
	case domain.EventKindOrder:
		if ev.Order != nil {
			added = c.store.AppendOrders([]domain.RawOrder{*ev.Order})
		}
	case domain.EventKindCancel:
		if ev.Cancellation != nil {
			added = c.store.AppendCancellations([]domain.Cancellation{*ev.Cancellation})
		}
	case domain.EventKindTrade:
		if ev.Trade != nil {
			added = c.store.AppendTrades([]domain.Trade{*ev.Trade})
		}
	case domain.EventKindDeposit, domain.EventKindWithdraw:
		if ev.Transfer != nil && c.hooks.OnTransfer != nil {
			c.hooks.OnTransfer(ctx, *ev.Transfer)
		}
		return
	default:
		c.reportError(fmt.Errorf("%w: unknown kind %q", domain.ErrMalformedEvent, ev.Kind))
		return
	}

	if added > 0 {
		c.notifyUpdate()
	}
}

func (c *Coordinator) notifyUpdate() {
	if c.hooks.OnUpdate != nil {
		c.hooks.OnUpdate()
	}
}

func (c *Coordinator) reportError(err error) {
	if err == nil {
		return
	}
	c.logger.Warn("live feed error", slog.String("error", err.Error()))
	if c.hooks.OnError != nil {
		c.hooks.OnError(err)
	}
}
