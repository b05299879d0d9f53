package projection

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// OpenOrders reconciles the three event streams: an order is open exactly
// when no trade and no cancellation references its id. Membership is tested
// against id-indexed sets so re-deriving stays linear as history grows.
func (e *Engine) OpenOrders(snap domain.Snapshot) []domain.RawOrder {
	filled := make(map[uint64]struct{}, len(snap.Trades))
	for _, t := range snap.Trades {
		filled[t.ID] = struct{}{}
	}
	cancelled := make(map[uint64]struct{}, len(snap.Cancellations))
	for _, c := range snap.Cancellations {
		cancelled[c.ID] = struct{}{}
	}

	open := make([]domain.RawOrder, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if _, ok := filled[o.ID]; ok {
			continue
		}
		if _, ok := cancelled[o.ID]; ok {
			continue
		}
		open = append(open, o)
	}
	return open
}

// MyOpenOrders filters the open orders down to those created by the account,
// decorated and sorted newest first.
func (e *Engine) MyOpenOrders(snap domain.Snapshot, account common.Address) []domain.DecoratedOrder {
	mine := make([]domain.DecoratedOrder, 0)
	for _, o := range e.OpenOrders(snap) {
		if o.User != account {
			continue
		}
		d := e.DecorateOrder(o)
		if d.Side == domain.SideBuy {
			d.PriceClass = domain.PriceClassGreen
		} else {
			d.PriceClass = domain.PriceClassRed
		}
		mine = append(mine, d)
	}

	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].Timestamp > mine[j].Timestamp
	})
	return mine
}
