package projection

import (
	"sort"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// OrderBook decorates the open orders and partitions them by side. Both
// groups are sorted descending by price; the asks are deliberately not
// flipped to ascending, matching the observed contract of the display layer.
func (e *Engine) OrderBook(snap domain.Snapshot) domain.OrderBook {
	var book domain.OrderBook
	for _, o := range e.OpenOrders(snap) {
		d := e.DecorateOrder(o)
		if d.Side == domain.SideBuy {
			book.BuyOrders = append(book.BuyOrders, d)
		} else {
			book.SellOrders = append(book.SellOrders, d)
		}
	}

	byPriceDesc := func(orders []domain.DecoratedOrder) func(i, j int) bool {
		return func(i, j int) bool {
			return orders[i].TokenPrice.GreaterThan(orders[j].TokenPrice)
		}
	}
	sort.SliceStable(book.BuyOrders, byPriceDesc(book.BuyOrders))
	sort.SliceStable(book.SellOrders, byPriceDesc(book.SellOrders))
	return book
}
