package projection

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// TradeHistory decorates every trade and classifies its color against the
// chronologically previous trade. Classification must run in ascending time
// order because it depends on adjacency; only afterwards is the list
// re-sorted newest first for display.
func (e *Engine) TradeHistory(snap domain.Snapshot) []domain.DecoratedOrder {
	if len(snap.Trades) == 0 {
		return nil
	}

	trades := sortedByTimeAsc(snap.Trades)

	decorated := make([]domain.DecoratedOrder, 0, len(trades))
	prev := e.DecorateTrade(trades[0])
	for _, t := range trades {
		d := e.DecorateTrade(t)
		d.PriceClass = priceClass(d.TokenPrice, d.ID, prev)
		decorated = append(decorated, d)
		prev = d
	}

	sort.SliceStable(decorated, func(i, j int) bool {
		return decorated[i].Timestamp > decorated[j].Timestamp
	})
	return decorated
}

// MyTrades filters the trades where the account is maker or taker, in
// ascending time order. The side is relative to the viewer: the maker sees
// the order's structural side, the taker the inverse.
func (e *Engine) MyTrades(snap domain.Snapshot, account common.Address) []domain.DecoratedOrder {
	mine := make([]domain.DecoratedOrder, 0)
	for _, t := range sortedByTimeAsc(snap.Trades) {
		if t.User != account && t.UserFill != account {
			continue
		}
		d := e.DecorateTrade(t)
		if t.User != account {
			d.Side = d.Side.Invert()
		}
		if d.Side == domain.SideBuy {
			d.Sign = domain.SignBuy
			d.PriceClass = domain.PriceClassGreen
		} else {
			d.Sign = domain.SignSell
			d.PriceClass = domain.PriceClassRed
		}
		mine = append(mine, d)
	}
	return mine
}

// priceClass implements the tie-break rule: a trade sharing the previous
// trade's id is green, otherwise green when the price did not drop.
func priceClass(price decimal.Decimal, id uint64, prev domain.DecoratedOrder) string {
	if prev.ID == id {
		return domain.PriceClassGreen
	}
	if prev.TokenPrice.LessThanOrEqual(price) {
		return domain.PriceClassGreen
	}
	return domain.PriceClassRed
}

// sortedByTimeAsc returns a stable ascending-time copy, leaving the snapshot
// untouched.
func sortedByTimeAsc(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
