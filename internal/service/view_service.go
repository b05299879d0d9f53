package service

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexwatch/internal/domain"
	"github.com/alanyoungcy/dexwatch/internal/projection"
	"github.com/alanyoungcy/dexwatch/internal/store"
)

// ViewService answers read-model queries by snapshotting the raw store and
// running the projections over it. Every call sees a consistent snapshot;
// repeated calls may see newer events.
type ViewService struct {
	store  *store.Store
	engine *projection.Engine
}

// NewViewService creates a ViewService over the given store and engine.
func NewViewService(st *store.Store, engine *projection.Engine) *ViewService {
	return &ViewService{store: st, engine: engine}
}

// OrderBook returns the current resting orders grouped by side.
func (v *ViewService) OrderBook() domain.OrderBook {
	return v.engine.OrderBook(v.store.Snapshot())
}

// TradeHistory returns all fills, classified and ordered for display.
func (v *ViewService) TradeHistory() []domain.DecoratedOrder {
	return v.engine.TradeHistory(v.store.Snapshot())
}

// OpenOrders returns the raw open orders (neither filled nor cancelled).
func (v *ViewService) OpenOrders() []domain.RawOrder {
	return v.engine.OpenOrders(v.store.Snapshot())
}

// MyOpenOrders returns the account's open orders, decorated for display.
func (v *ViewService) MyOpenOrders(account common.Address) []domain.DecoratedOrder {
	return v.engine.MyOpenOrders(v.store.Snapshot(), account)
}

// MyTrades returns the account's fills from the account's perspective.
func (v *ViewService) MyTrades(account common.Address) []domain.DecoratedOrder {
	return v.engine.MyTrades(v.store.Snapshot(), account)
}

// PriceChart returns the hour-bucketed candlestick series.
func (v *ViewService) PriceChart() domain.PriceChart {
	return v.engine.PriceChart(v.store.Snapshot())
}
