// Package projection derives every displayed view from a raw event snapshot:
// open orders, the order book, classified trade history, and the candlestick
// price chart. All derivations are pure functions of the snapshot passed in;
// inputs are never mutated and identical snapshots yield identical output.
package projection

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dexwatch/internal/domain"
	"github.com/alanyoungcy/dexwatch/internal/wei"
)

// timeLabelLayout mirrors the display layer's "h:mm:ss a M/D" timestamp.
const timeLabelLayout = "3:04:05 pm 1/2"

// Engine computes projections. The only configuration it carries is the
// location used for timestamp labels and hour bucketing, which is explicit so
// derived output does not depend on the ambient system timezone.
type Engine struct {
	loc *time.Location
}

// New creates an Engine bucketing and formatting in the given location.
// A nil location means UTC.
func New(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// DecorateOrder enriches a raw order with display amounts, price, side, and
// a formatted timestamp.
func (e *Engine) DecorateOrder(o domain.RawOrder) domain.DecoratedOrder {
	d := e.decorate(o.TokenGive, o.AmountGet, o.AmountGive, o.Timestamp)
	d.ID = o.ID
	d.User = o.User
	return d
}

// DecorateTrade enriches a trade the same way, carrying the taker address.
func (e *Engine) DecorateTrade(t domain.Trade) domain.DecoratedOrder {
	d := e.decorate(t.TokenGive, t.AmountGet, t.AmountGive, t.Timestamp)
	d.ID = t.ID
	d.User = t.User
	d.UserFill = t.UserFill
	return d
}

// decorate splits the amounts into their ether and token legs based on the
// structural side rule and computes the rounded token price. Zero-amount
// orders are out of contract (the exchange rejects them); a zero token leg
// leaves the price at zero rather than dividing.
func (e *Engine) decorate(tokenGive common.Address, amountGet, amountGive *big.Int, ts int64) domain.DecoratedOrder {
	side := domain.SideOf(tokenGive)

	var etherRaw, tokenRaw *big.Int
	if side == domain.SideBuy {
		etherRaw, tokenRaw = amountGive, amountGet
	} else {
		etherRaw, tokenRaw = amountGet, amountGive
	}

	etherAmount, _ := wei.FromWei(etherRaw)
	tokenAmount, _ := wei.FromWei(tokenRaw)

	var price decimal.Decimal
	if !tokenAmount.IsZero() {
		price = wei.RoundPrice(etherAmount.Div(tokenAmount))
	}

	return domain.DecoratedOrder{
		Side:        side,
		EtherAmount: etherAmount,
		TokenAmount: tokenAmount,
		TokenPrice:  price,
		Timestamp:   ts,
		TimeLabel:   time.Unix(ts, 0).In(e.loc).Format(timeLabelLayout),
	}
}
