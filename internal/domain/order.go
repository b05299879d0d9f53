// Package domain defines the core data model of the dexwatch read-model
// engine: the raw event facts emitted by the exchange contract, the derived
// view types computed from them, and the interfaces implemented by the leaf
// packages (event source, balance reader, caches).
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeAsset is the reserved address the exchange contract uses for the
// chain's native currency, as opposed to a token contract address.
var NativeAsset = common.Address{}

// Side indicates whether an order buys or sells the traded token.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SideOf classifies an order or trade from its structure: the contract has no
// explicit side field, so an order is a buy of the token exactly when the
// asset given in exchange is the native one.
func SideOf(tokenGive common.Address) Side {
	if tokenGive == NativeAsset {
		return SideBuy
	}
	return SideSell
}

// Invert flips buy to sell and back. Used when classifying a trade from the
// taker's perspective.
func (s Side) Invert() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// RawOrder is the immutable fact recorded when an Order event is observed.
// IDs are assigned by the exchange contract; they are unique and
// monotonically non-decreasing but not necessarily gap-free.
type RawOrder struct {
	ID         uint64
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  int64 // unix seconds
}

// Cancellation references a RawOrder by id. It may arrive for an id not yet
// seen locally; reconciliation simply finds no match until the order appears.
type Cancellation struct {
	ID        uint64
	User      common.Address
	Timestamp int64
}

// DecoratedOrder extends a raw order or trade with display-ready values. It
// is always a new value; raw facts are never mutated.
type DecoratedOrder struct {
	ID          uint64
	User        common.Address
	UserFill    common.Address // zero unless decorated from a trade
	Side        Side
	EtherAmount decimal.Decimal
	TokenAmount decimal.Decimal
	TokenPrice  decimal.Decimal
	Timestamp   int64
	TimeLabel   string

	// Context-dependent annotations set by the consuming projection.
	PriceClass string // trade history: green/red vs the previous trade
	Sign       string // my-trades: "+" for a buy, "-" for a sell
}

// OrderBook groups the decorated open orders by side.
type OrderBook struct {
	BuyOrders  []DecoratedOrder
	SellOrders []DecoratedOrder
}
