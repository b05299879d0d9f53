package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CSS classes used by the display layer for price movement. Kept as the wire
// contract so the API serves values the UI can apply directly.
const (
	PriceClassGreen = "success"
	PriceClassRed   = "danger"
)

// Signs annotating an account's own trades.
const (
	SignBuy  = "+"
	SignSell = "-"
)

// Candle is an OHLC summary of the trades inside one hour-aligned bucket.
// Buckets with no trades produce no candle.
type Candle struct {
	BucketStart time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
}

// PriceChart is the candlestick series plus the latest-price summary.
// Direction is "+" when the last price is at or above the second-to-last,
// including when fewer than two trades exist.
type PriceChart struct {
	LastPrice decimal.Decimal
	Direction string
	Candles   []Candle
}
