package projection

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

var (
	tokenAddr = common.HexToAddress("0x0000000000000000000000000000000000da0000")
	maker     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	taker     = common.HexToAddress("0x2222222222222222222222222222222222222222")
	stranger  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// ether scales n display units to the raw 18-decimal amount.
func ether(n float64) *big.Int {
	d := decimal.NewFromFloat(n).Shift(18)
	return d.BigInt()
}

// buyOrder gives ether for tokens at the implied price etherAmt/tokenAmt.
func buyOrder(id uint64, user common.Address, etherAmt, tokenAmt float64, ts int64) domain.RawOrder {
	return domain.RawOrder{
		ID:         id,
		User:       user,
		TokenGet:   tokenAddr,
		AmountGet:  ether(tokenAmt),
		TokenGive:  domain.NativeAsset,
		AmountGive: ether(etherAmt),
		Timestamp:  ts,
	}
}

func sellOrder(id uint64, user common.Address, etherAmt, tokenAmt float64, ts int64) domain.RawOrder {
	return domain.RawOrder{
		ID:         id,
		User:       user,
		TokenGet:   domain.NativeAsset,
		AmountGet:  ether(etherAmt),
		TokenGive:  tokenAddr,
		AmountGive: ether(tokenAmt),
		Timestamp:  ts,
	}
}

// buyTrade fills a maker buy order: maker gave ether, got tokens.
func buyTrade(id uint64, price float64, ts int64) domain.Trade {
	return domain.Trade{
		ID:         id,
		User:       maker,
		UserFill:   taker,
		TokenGet:   tokenAddr,
		AmountGet:  ether(1),
		TokenGive:  domain.NativeAsset,
		AmountGive: ether(price),
		Timestamp:  ts,
	}
}

func requirePrice(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"price = %s, want %s", got, want)
}

func TestDecoratePriceSymmetry(t *testing.T) {
	eng := New(time.UTC)

	// Give 2 ether for 1 token: price 2.00000.
	buy := eng.DecorateOrder(buyOrder(1, maker, 2, 1, 1_600_000_000))
	assert.Equal(t, domain.SideBuy, buy.Side)
	requirePrice(t, "2", buy.TokenPrice)
	requirePrice(t, "2", buy.EtherAmount)
	requirePrice(t, "1", buy.TokenAmount)

	// Structurally reversed order: price 0.50000.
	sell := eng.DecorateOrder(sellOrder(2, maker, 1, 2, 1_600_000_000))
	assert.Equal(t, domain.SideSell, sell.Side)
	requirePrice(t, "0.5", sell.TokenPrice)
}

func TestDecorateRoundsToFiveDecimals(t *testing.T) {
	eng := New(time.UTC)

	// 1/3 ether per token rounds to 0.33333.
	d := eng.DecorateOrder(buyOrder(1, maker, 1, 3, 1_600_000_000))
	requirePrice(t, "0.33333", d.TokenPrice)
}

func TestDecorateZeroTokenAmount(t *testing.T) {
	eng := New(time.UTC)

	o := buyOrder(1, maker, 1, 0, 1_600_000_000)
	d := eng.DecorateOrder(o)
	assert.True(t, d.TokenPrice.IsZero())
}

func TestOpenOrdersReconciliation(t *testing.T) {
	eng := New(time.UTC)

	snap := domain.Snapshot{
		Orders: []domain.RawOrder{
			buyOrder(1, maker, 1, 1, 100),
			buyOrder(2, maker, 1, 1, 101),
			buyOrder(3, maker, 1, 1, 102),
			buyOrder(4, maker, 1, 1, 103),
		},
		Cancellations: []domain.Cancellation{{ID: 2}},
		Trades:        []domain.Trade{buyTrade(3, 1, 104)},
	}

	open := eng.OpenOrders(snap)
	require.Len(t, open, 2)
	assert.Equal(t, uint64(1), open[0].ID)
	assert.Equal(t, uint64(4), open[1].ID)
}

func TestOpenOrdersDanglingReferences(t *testing.T) {
	eng := New(time.UTC)

	// Cancellation and trade for unseen ids have no visible effect.
	snap := domain.Snapshot{
		Orders:        []domain.RawOrder{buyOrder(1, maker, 1, 1, 100)},
		Cancellations: []domain.Cancellation{{ID: 50}},
		Trades:        []domain.Trade{buyTrade(60, 1, 104)},
	}
	open := eng.OpenOrders(snap)
	require.Len(t, open, 1)

	// Once the referenced order appears, reconciliation applies retroactively.
	snap.Orders = append(snap.Orders, buyOrder(50, maker, 1, 1, 105))
	open = eng.OpenOrders(snap)
	require.Len(t, open, 1)
	assert.Equal(t, uint64(1), open[0].ID)
}

func TestOrderBookPartitionAndSort(t *testing.T) {
	eng := New(time.UTC)

	snap := domain.Snapshot{
		Orders: []domain.RawOrder{
			buyOrder(1, maker, 1, 1, 100),  // price 1
			buyOrder(2, maker, 3, 1, 101),  // price 3
			buyOrder(3, maker, 2, 1, 102),  // price 2
			sellOrder(4, maker, 1, 2, 103), // price 0.5
			sellOrder(5, maker, 3, 2, 104), // price 1.5
		},
	}

	book := eng.OrderBook(snap)
	require.Len(t, book.BuyOrders, 3)
	require.Len(t, book.SellOrders, 2)

	// Both sides descending by price.
	requirePrice(t, "3", book.BuyOrders[0].TokenPrice)
	requirePrice(t, "2", book.BuyOrders[1].TokenPrice)
	requirePrice(t, "1", book.BuyOrders[2].TokenPrice)
	requirePrice(t, "1.5", book.SellOrders[0].TokenPrice)
	requirePrice(t, "0.5", book.SellOrders[1].TokenPrice)
}

func TestOrderBookExcludesFilledAndCancelled(t *testing.T) {
	eng := New(time.UTC)

	snap := domain.Snapshot{
		Orders:        []domain.RawOrder{buyOrder(1, maker, 1, 1, 100)},
		Trades:        []domain.Trade{buyTrade(1, 1, 101)},
		Cancellations: nil,
	}
	book := eng.OrderBook(snap)
	assert.Empty(t, book.BuyOrders)
	assert.Empty(t, book.SellOrders)
}

func TestTradeHistoryClassification(t *testing.T) {
	eng := New(time.UTC)

	// Prices 1.0, 1.2, 1.1 in ascending time order.
	snap := domain.Snapshot{
		Trades: []domain.Trade{
			buyTrade(1, 1.0, 100),
			buyTrade(2, 1.2, 200),
			buyTrade(3, 1.1, 300),
		},
	}

	history := eng.TradeHistory(snap)
	require.Len(t, history, 3)

	// Display order is newest first; classification was chronological.
	assert.Equal(t, uint64(3), history[0].ID)
	assert.Equal(t, domain.PriceClassRed, history[0].PriceClass) // 1.1 < 1.2
	assert.Equal(t, uint64(2), history[1].ID)
	assert.Equal(t, domain.PriceClassGreen, history[1].PriceClass) // 1.2 >= 1.0
	assert.Equal(t, uint64(1), history[2].ID)
	assert.Equal(t, domain.PriceClassGreen, history[2].PriceClass) // first trade
}

func TestTradeHistoryShuffledInputClassifiesChronologically(t *testing.T) {
	eng := New(time.UTC)

	// Same trades appended out of time order: classification must not change.
	snap := domain.Snapshot{
		Trades: []domain.Trade{
			buyTrade(3, 1.1, 300),
			buyTrade(1, 1.0, 100),
			buyTrade(2, 1.2, 200),
		},
	}

	history := eng.TradeHistory(snap)
	require.Len(t, history, 3)
	assert.Equal(t, domain.PriceClassRed, history[0].PriceClass)
	assert.Equal(t, domain.PriceClassGreen, history[1].PriceClass)
	assert.Equal(t, domain.PriceClassGreen, history[2].PriceClass)
}

func TestTradeHistoryEmpty(t *testing.T) {
	eng := New(time.UTC)
	assert.Empty(t, eng.TradeHistory(domain.Snapshot{}))
}

func TestMyTradesSideAndSign(t *testing.T) {
	eng := New(time.UTC)

	snap := domain.Snapshot{
		Trades: []domain.Trade{
			buyTrade(1, 1.0, 100), // maker bought, taker sold
			buyTrade(2, 1.5, 200),
		},
	}

	// Maker perspective: structural side.
	mine := eng.MyTrades(snap, maker)
	require.Len(t, mine, 2)
	assert.Equal(t, domain.SideBuy, mine[0].Side)
	assert.Equal(t, domain.SignBuy, mine[0].Sign)
	assert.Equal(t, domain.PriceClassGreen, mine[0].PriceClass)

	// Taker perspective: inverted side.
	theirs := eng.MyTrades(snap, taker)
	require.Len(t, theirs, 2)
	assert.Equal(t, domain.SideSell, theirs[0].Side)
	assert.Equal(t, domain.SignSell, theirs[0].Sign)
	assert.Equal(t, domain.PriceClassRed, theirs[0].PriceClass)

	// Uninvolved account sees nothing.
	assert.Empty(t, eng.MyTrades(snap, stranger))
}

func TestMyOpenOrders(t *testing.T) {
	eng := New(time.UTC)

	snap := domain.Snapshot{
		Orders: []domain.RawOrder{
			buyOrder(1, maker, 1, 1, 100),
			sellOrder(2, taker, 1, 1, 200),
			buyOrder(3, maker, 2, 1, 300),
		},
		Trades: []domain.Trade{buyTrade(3, 2, 301)},
	}

	mine := eng.MyOpenOrders(snap, maker)
	require.Len(t, mine, 1)
	assert.Equal(t, uint64(1), mine[0].ID)
	assert.Equal(t, domain.PriceClassGreen, mine[0].PriceClass)
}

func TestTimeLabelUsesConfiguredLocation(t *testing.T) {
	// 2020-09-13 12:26:40 UTC.
	ts := int64(1_600_000_000)

	utc := New(time.UTC).DecorateOrder(buyOrder(1, maker, 1, 1, ts))
	assert.Equal(t, "12:26:40 pm 9/13", utc.TimeLabel)

	est := time.FixedZone("UTC-5", -5*60*60)
	shifted := New(est).DecorateOrder(buyOrder(1, maker, 1, 1, ts))
	assert.Equal(t, "7:26:40 am 9/13", shifted.TimeLabel)
}
