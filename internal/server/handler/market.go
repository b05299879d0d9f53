package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// MarketView defines the market-wide projections the handler requires from
// the service layer.
type MarketView interface {
	OrderBook() domain.OrderBook
	TradeHistory() []domain.DecoratedOrder
	OpenOrders() []domain.RawOrder
	PriceChart() domain.PriceChart
}

// MarketHandler serves the market-wide read-model endpoints: order book,
// trade history, open orders, and the candlestick chart.
type MarketHandler struct {
	view   MarketView
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given view and logger.
func NewMarketHandler(view MarketView, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		view:   view,
		logger: logger,
	}
}

// orderBookResponse wraps the order book response.
type orderBookResponse struct {
	BuyOrders  []orderView `json:"buy_orders"`
	SellOrders []orderView `json:"sell_orders"`
}

// GetOrderBook returns the resting open orders grouped by side.
// GET /api/orderbook
func (h *MarketHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	book := h.view.OrderBook()
	writeJSON(w, http.StatusOK, orderBookResponse{
		BuyOrders:  toOrderViews(book.BuyOrders),
		SellOrders: toOrderViews(book.SellOrders),
	})
}

// listTradesResponse wraps the trade history response.
type listTradesResponse struct {
	Trades []orderView `json:"trades"`
}

// ListTrades returns all fills, classified and ordered for display.
// GET /api/trades
func (h *MarketHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listTradesResponse{
		Trades: toOrderViews(h.view.TradeHistory()),
	})
}

// rawOrderView is the JSON shape of an undecorated open order.
type rawOrderView struct {
	ID         uint64 `json:"id"`
	User       string `json:"user"`
	TokenGet   string `json:"token_get"`
	AmountGet  string `json:"amount_get"`
	TokenGive  string `json:"token_give"`
	AmountGive string `json:"amount_give"`
	Timestamp  int64  `json:"timestamp"`
}

// listOpenOrdersResponse wraps the open orders response.
type listOpenOrdersResponse struct {
	Orders []rawOrderView `json:"orders"`
}

// ListOpenOrders returns every order that is neither filled nor cancelled.
// GET /api/orders/open
func (h *MarketHandler) ListOpenOrders(w http.ResponseWriter, r *http.Request) {
	open := h.view.OpenOrders()
	views := make([]rawOrderView, 0, len(open))
	for _, o := range open {
		views = append(views, rawOrderView{
			ID:         o.ID,
			User:       o.User.Hex(),
			TokenGet:   o.TokenGet.Hex(),
			AmountGet:  o.AmountGet.String(),
			TokenGive:  o.TokenGive.Hex(),
			AmountGive: o.AmountGive.String(),
			Timestamp:  o.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, listOpenOrdersResponse{Orders: views})
}

// candleView is the JSON shape of one OHLC bucket.
type candleView struct {
	BucketStart time.Time `json:"bucket_start"`
	Open        string    `json:"open"`
	High        string    `json:"high"`
	Low         string    `json:"low"`
	Close       string    `json:"close"`
}

// chartResponse wraps the candlestick chart response.
type chartResponse struct {
	LastPrice string       `json:"last_price"`
	Direction string       `json:"direction"`
	Candles   []candleView `json:"candles"`
}

// GetChart returns the hour-bucketed candlestick series.
// GET /api/chart
func (h *MarketHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	chart := h.view.PriceChart()
	candles := make([]candleView, 0, len(chart.Candles))
	for _, c := range chart.Candles {
		candles = append(candles, candleView{
			BucketStart: c.BucketStart,
			Open:        c.Open.String(),
			High:        c.High.String(),
			Low:         c.Low.String(),
			Close:       c.Close.String(),
		})
	}
	writeJSON(w, http.StatusOK, chartResponse{
		LastPrice: chart.LastPrice.String(),
		Direction: chart.Direction,
		Candles:   candles,
	})
}
