package feed

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexwatch/internal/domain"
	"github.com/alanyoungcy/dexwatch/internal/projection"
	"github.com/alanyoungcy/dexwatch/internal/store"
)

var (
	maker = common.HexToAddress("0x1111111111111111111111111111111111111111")
	taker = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token = common.HexToAddress("0x00000000000000000000000000000000000da000")
)

// fakeSource is an in-memory domain.EventSource.
type fakeSource struct {
	mu            sync.Mutex
	orders        []domain.RawOrder
	cancellations []domain.Cancellation
	trades        []domain.Trade
	backfillErr   error
	subscribeErr  error

	subs []*fakeSubscription
}

func (f *fakeSource) OrderHistory(ctx context.Context) ([]domain.RawOrder, error) {
	return f.orders, f.backfillErr
}

func (f *fakeSource) CancellationHistory(ctx context.Context) ([]domain.Cancellation, error) {
	return f.cancellations, f.backfillErr
}

func (f *fakeSource) TradeHistory(ctx context.Context) ([]domain.Trade, error) {
	return f.trades, f.backfillErr
}

func (f *fakeSource) Subscribe(ctx context.Context) (domain.EventSubscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	sub := &fakeSubscription{
		events: make(chan domain.Event, 16),
		errs:   make(chan error, 16),
	}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeSource) latestSub(t *testing.T) *fakeSubscription {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		f.mu.Lock()
		n := len(f.subs)
		var sub *fakeSubscription
		if n > 0 {
			sub = f.subs[n-1]
		}
		f.mu.Unlock()
		if sub != nil {
			return sub
		}
		select {
		case <-deadline:
			t.Fatal("no subscription opened")
		case <-time.After(time.Millisecond):
		}
	}
}

type fakeSubscription struct {
	events    chan domain.Event
	errs      chan error
	closeOnce sync.Once
}

func (s *fakeSubscription) Events() <-chan domain.Event { return s.events }
func (s *fakeSubscription) Err() <-chan error           { return s.errs }
func (s *fakeSubscription) Close() {
	s.closeOnce.Do(func() { close(s.events) })
}

func buyOrder(id uint64, ts int64) domain.RawOrder {
	return domain.RawOrder{
		ID:         id,
		User:       maker,
		TokenGet:   token,
		AmountGet:  big.NewInt(1e18),
		TokenGive:  domain.NativeAsset,
		AmountGive: big.NewInt(2e18),
		Timestamp:  ts,
	}
}

func tradeFor(o domain.RawOrder, ts int64) domain.Trade {
	return domain.Trade{
		ID:         o.ID,
		User:       o.User,
		UserFill:   taker,
		TokenGet:   o.TokenGet,
		AmountGet:  o.AmountGet,
		TokenGive:  o.TokenGive,
		AmountGive: o.AmountGive,
		Timestamp:  ts,
	}
}

// startCoordinator runs the coordinator and waits for it to go live.
func startCoordinator(t *testing.T, src *fakeSource, st *store.Store, hooks Hooks) (*Coordinator, <-chan error) {
	t.Helper()

	c := New(src, st, hooks, slog.Default())
	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(context.Background()) }()

	require.Eventually(t, func() bool { return c.State() == StateLive },
		time.Second, time.Millisecond)
	return c, runErr
}

func waitForUpdates(t *testing.T, updates <-chan struct{}) {
	t.Helper()
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no update notification")
	}
}

func TestBackfillThenLiveTrade(t *testing.T) {
	src := &fakeSource{orders: []domain.RawOrder{buyOrder(1, 100)}}
	st := store.New(slog.Default())
	eng := projection.New(time.UTC)

	updates := make(chan struct{}, 16)
	c, runErr := startCoordinator(t, src, st, Hooks{
		OnUpdate: func() { updates <- struct{}{} },
	})
	defer c.Close()
	waitForUpdates(t, updates) // backfill applied

	snap := st.Snapshot()
	require.Len(t, eng.OpenOrders(snap), 1)
	require.Empty(t, eng.TradeHistory(snap))

	// A live trade fills the backfilled order.
	fill := tradeFor(src.orders[0], 200)
	src.latestSub(t).events <- domain.Event{Kind: domain.EventKindTrade, Trade: &fill}
	waitForUpdates(t, updates)

	snap = st.Snapshot()
	assert.Empty(t, eng.OpenOrders(snap))
	assert.Len(t, eng.TradeHistory(snap), 1)
	book := eng.OrderBook(snap)
	assert.Empty(t, book.BuyOrders)

	c.Close()
	require.NoError(t, <-runErr)
}

func TestDanglingCancellationTolerated(t *testing.T) {
	src := &fakeSource{orders: []domain.RawOrder{buyOrder(1, 100)}}
	st := store.New(slog.Default())
	eng := projection.New(time.UTC)

	updates := make(chan struct{}, 16)
	c, _ := startCoordinator(t, src, st, Hooks{
		OnUpdate: func() { updates <- struct{}{} },
	})
	defer c.Close()
	waitForUpdates(t, updates)

	// Cancellation for an id never seen: no visible effect.
	src.latestSub(t).events <- domain.Event{
		Kind:         domain.EventKindCancel,
		Cancellation: &domain.Cancellation{ID: 999, Timestamp: 150},
	}
	waitForUpdates(t, updates)

	assert.Len(t, eng.OpenOrders(st.Snapshot()), 1)
}

func TestBackfillFailureReturned(t *testing.T) {
	src := &fakeSource{backfillErr: errors.New("node down")}
	c := New(src, store.New(slog.Default()), Hooks{}, slog.Default())

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, c.State())
}

func TestTransferInvalidatesBalances(t *testing.T) {
	src := &fakeSource{}
	st := store.New(slog.Default())

	transfers := make(chan domain.Transfer, 1)
	c, _ := startCoordinator(t, src, st, Hooks{
		OnTransfer: func(_ context.Context, tr domain.Transfer) { transfers <- tr },
	})
	defer c.Close()

	src.latestSub(t).events <- domain.Event{
		Kind: domain.EventKindDeposit,
		Transfer: &domain.Transfer{
			Token:  domain.NativeAsset,
			User:   maker,
			Amount: big.NewInt(1e18),
		},
	}

	select {
	case tr := <-transfers:
		assert.Equal(t, maker, tr.User)
		assert.False(t, tr.Withdraw)
	case <-time.After(time.Second):
		t.Fatal("transfer hook not called")
	}

	// Transfers do not touch the projections.
	o, cs, trs := st.Counts()
	assert.Zero(t, o+cs+trs)
}

func TestLiveErrorDoesNotStopDelivery(t *testing.T) {
	src := &fakeSource{}
	st := store.New(slog.Default())

	var mu sync.Mutex
	var reported []error
	updates := make(chan struct{}, 16)
	c, _ := startCoordinator(t, src, st, Hooks{
		OnUpdate: func() { updates <- struct{}{} },
		OnError: func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
	})
	defer c.Close()

	sub := src.latestSub(t)
	sub.errs <- domain.ErrMalformedEvent

	o := buyOrder(1, 100)
	sub.events <- domain.Event{Kind: domain.EventKindOrder, Order: &o}
	waitForUpdates(t, updates)

	assert.Equal(t, StateLive, c.State())
	mu.Lock()
	assert.NotEmpty(t, reported)
	mu.Unlock()

	orders, _, _ := st.Counts()
	assert.Equal(t, 1, orders)
}

func TestReconnectAfterTransportLoss(t *testing.T) {
	src := &fakeSource{}
	st := store.New(slog.Default())

	c, _ := startCoordinator(t, src, st, Hooks{OnError: func(error) {}})
	defer c.Close()

	// Kill the transport: the events channel closes.
	src.latestSub(t).Close()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.subs) >= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateLive, c.State())
}

func TestCloseStopsMutation(t *testing.T) {
	src := &fakeSource{}
	st := store.New(slog.Default())

	c, runErr := startCoordinator(t, src, st, Hooks{})
	sub := src.latestSub(t)
	c.Close()
	require.NoError(t, <-runErr)

	// Events delivered after teardown are never applied.
	o := buyOrder(1, 100)
	select {
	case sub.events <- domain.Event{Kind: domain.EventKindOrder, Order: &o}:
	default:
	}
	time.Sleep(10 * time.Millisecond)

	orders, _, _ := st.Counts()
	assert.Zero(t, orders)
}
