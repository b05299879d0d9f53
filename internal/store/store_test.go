package store

import (
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func order(id uint64) domain.RawOrder {
	return domain.RawOrder{
		ID:         id,
		AmountGet:  big.NewInt(1e18),
		AmountGive: big.NewInt(2e18),
		Timestamp:  int64(1_600_000_000 + id),
	}
}

func trade(id uint64) domain.Trade {
	return domain.Trade{
		ID:         id,
		AmountGet:  big.NewInt(1e18),
		AmountGive: big.NewInt(2e18),
		Timestamp:  int64(1_600_000_000 + id),
	}
}

func TestAppendIsIdempotent(t *testing.T) {
	s := New(testLogger())

	batch := []domain.RawOrder{order(1), order(2), order(3)}
	require.Equal(t, 3, s.AppendOrders(batch))
	require.Equal(t, 0, s.AppendOrders(batch))

	snap := s.Snapshot()
	assert.Len(t, snap.Orders, 3)

	trades := []domain.Trade{trade(1), trade(1)}
	assert.Equal(t, 1, s.AppendTrades(trades))
	assert.Equal(t, 0, s.AppendTrades(trades))
	assert.Len(t, s.Snapshot().Trades, 1)
}

func TestAppendOrderIndependence(t *testing.T) {
	// Appending kinds in any interleaving yields the same final snapshot.
	build := func(appends []func(*Store)) domain.Snapshot {
		s := New(testLogger())
		for _, fn := range appends {
			fn(s)
		}
		return s.Snapshot()
	}

	addOrders := func(s *Store) { s.AppendOrders([]domain.RawOrder{order(1), order(2)}) }
	addCancels := func(s *Store) { s.AppendCancellations([]domain.Cancellation{{ID: 1}}) }
	addTrades := func(s *Store) { s.AppendTrades([]domain.Trade{trade(2)}) }

	a := build([]func(*Store){addOrders, addCancels, addTrades})
	b := build([]func(*Store){addTrades, addCancels, addOrders})
	c := build([]func(*Store){addCancels, addOrders, addTrades})

	for _, snap := range []domain.Snapshot{a, b, c} {
		assert.Len(t, snap.Orders, 2)
		assert.Len(t, snap.Cancellations, 1)
		assert.Len(t, snap.Trades, 1)
	}
}

func TestMalformedRecordsDropped(t *testing.T) {
	s := New(testLogger())

	bad := domain.RawOrder{ID: 7, AmountGet: nil, AmountGive: big.NewInt(1)}
	assert.Equal(t, 0, s.AppendOrders([]domain.RawOrder{bad}))

	badTrade := domain.Trade{ID: 8, AmountGet: big.NewInt(1), AmountGive: nil}
	assert.Equal(t, 0, s.AppendTrades([]domain.Trade{badTrade}))

	snap := s.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.Empty(t, snap.Trades)
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(testLogger())
	s.AppendOrders([]domain.RawOrder{order(1)})

	snap := s.Snapshot()
	require.Len(t, snap.Orders, 1)

	// Later appends do not leak into an already-taken snapshot.
	s.AppendOrders([]domain.RawOrder{order(2)})
	assert.Len(t, snap.Orders, 1)

	// Mutating the snapshot slice does not corrupt the store.
	snap.Orders[0].ID = 99
	fresh := s.Snapshot()
	assert.Equal(t, uint64(1), fresh.Orders[0].ID)
}

func TestCounts(t *testing.T) {
	s := New(testLogger())
	s.AppendOrders([]domain.RawOrder{order(1), order(2)})
	s.AppendCancellations([]domain.Cancellation{{ID: 1}})
	s.AppendTrades([]domain.Trade{trade(2)})

	o, c, tr := s.Counts()
	assert.Equal(t, 2, o)
	assert.Equal(t, 1, c)
	assert.Equal(t, 1, tr)
}
