// Package store implements the append-only raw event store. Appends are
// idempotent and commutative across event kinds, so concurrent arrival order
// cannot produce an inconsistent final snapshot.
package store

import (
	"log/slog"
	"sync"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// Store accumulates raw exchange events, deduplicated by id per kind. It is
// the only mutable shared state in the engine; every read goes through
// Snapshot, which always reflects a complete append boundary.
type Store struct {
	mu sync.RWMutex

	orders        []domain.RawOrder
	cancellations []domain.Cancellation
	trades        []domain.Trade

	orderIDs  map[uint64]struct{}
	cancelIDs map[uint64]struct{}
	tradeIDs  map[uint64]struct{}

	logger *slog.Logger
}

// New creates an empty Store.
func New(logger *slog.Logger) *Store {
	return &Store{
		orderIDs:  make(map[uint64]struct{}),
		cancelIDs: make(map[uint64]struct{}),
		tradeIDs:  make(map[uint64]struct{}),
		logger:    logger.With(slog.String("component", "store")),
	}
}

// AppendOrders appends a batch of orders, silently dropping ids already
// present. Records missing a required amount are dropped with a warning.
func (s *Store) AppendOrders(orders []domain.RawOrder) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, o := range orders {
		if o.AmountGet == nil || o.AmountGive == nil {
			s.logger.Warn("dropping malformed order", slog.Uint64("id", o.ID))
			continue
		}
		if _, seen := s.orderIDs[o.ID]; seen {
			continue
		}
		s.orderIDs[o.ID] = struct{}{}
		s.orders = append(s.orders, o)
		added++
	}
	return added
}

// AppendCancellations appends a batch of cancellations, deduplicated by id.
// A cancellation referencing an unseen order id is kept; it has no visible
// effect until the order appears.
func (s *Store) AppendCancellations(cancellations []domain.Cancellation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, c := range cancellations {
		if _, seen := s.cancelIDs[c.ID]; seen {
			continue
		}
		s.cancelIDs[c.ID] = struct{}{}
		s.cancellations = append(s.cancellations, c)
		added++
	}
	return added
}

// AppendTrades appends a batch of trades. An order is filled at most once in
// this model, so a second trade for an id already present is ignored: the
// first observation wins.
func (s *Store) AppendTrades(trades []domain.Trade) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, t := range trades {
		if t.AmountGet == nil || t.AmountGive == nil {
			s.logger.Warn("dropping malformed trade", slog.Uint64("id", t.ID))
			continue
		}
		if _, seen := s.tradeIDs[t.ID]; seen {
			s.logger.Warn("dropping duplicate trade", slog.Uint64("id", t.ID))
			continue
		}
		s.tradeIDs[t.ID] = struct{}{}
		s.trades = append(s.trades, t)
		added++
	}
	return added
}

// Snapshot returns the current immutable view. The returned slices are
// copies; callers may hold them across later appends.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		Orders:        make([]domain.RawOrder, len(s.orders)),
		Cancellations: make([]domain.Cancellation, len(s.cancellations)),
		Trades:        make([]domain.Trade, len(s.trades)),
	}
	copy(snap.Orders, s.orders)
	copy(snap.Cancellations, s.cancellations)
	copy(snap.Trades, s.trades)
	return snap
}

// Counts reports the number of stored records per kind.
func (s *Store) Counts() (orders, cancellations, trades int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), len(s.cancellations), len(s.trades)
}
