package projection

import (
	"time"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// PriceChart buckets all trades into hour-aligned candles in the engine's
// configured location and reports the latest price with its direction.
// Fewer than two trades is not an error: with one trade the direction is "+",
// with none the chart is empty.
func (e *Engine) PriceChart(snap domain.Snapshot) domain.PriceChart {
	chart := domain.PriceChart{Direction: domain.SignBuy}
	if len(snap.Trades) == 0 {
		return chart
	}

	trades := sortedByTimeAsc(snap.Trades)

	decorated := make([]domain.DecoratedOrder, 0, len(trades))
	for _, t := range trades {
		decorated = append(decorated, e.DecorateTrade(t))
	}

	last := decorated[len(decorated)-1].TokenPrice
	chart.LastPrice = last
	if len(decorated) >= 2 {
		secondToLast := decorated[len(decorated)-2].TokenPrice
		if last.LessThan(secondToLast) {
			chart.Direction = domain.SignSell
		}
	}

	// Timestamps are ascending, so bucket starts are non-decreasing and
	// candles can be built in a single pass.
	var current *domain.Candle
	for _, d := range decorated {
		bucket := e.bucketStart(d.Timestamp)
		if current == nil || !current.BucketStart.Equal(bucket) {
			chart.Candles = append(chart.Candles, domain.Candle{
				BucketStart: bucket,
				Open:        d.TokenPrice,
				High:        d.TokenPrice,
				Low:         d.TokenPrice,
				Close:       d.TokenPrice,
			})
			current = &chart.Candles[len(chart.Candles)-1]
			continue
		}
		if d.TokenPrice.GreaterThan(current.High) {
			current.High = d.TokenPrice
		}
		if d.TokenPrice.LessThan(current.Low) {
			current.Low = d.TokenPrice
		}
		current.Close = d.TokenPrice
	}
	return chart
}

// bucketStart truncates a unix timestamp to the start of its hour in the
// engine's location. Built from wall-clock fields rather than Truncate so
// locations with fractional-hour offsets bucket on their own hour boundary.
func (e *Engine) bucketStart(ts int64) time.Time {
	t := time.Unix(ts, 0).In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, e.loc)
}
