package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// AccountView defines the per-account projections the handler requires from
// the service layer.
type AccountView interface {
	MyTrades(account common.Address) []domain.DecoratedOrder
	MyOpenOrders(account common.Address) []domain.DecoratedOrder
}

// BalanceProvider answers balance queries for an account.
type BalanceProvider interface {
	Balances(ctx context.Context, account common.Address) (domain.BalanceSet, error)
}

// AccountHandler serves the per-account endpoints: fills, open orders, and
// balances.
type AccountHandler struct {
	view     AccountView
	balances BalanceProvider
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler. balances may be nil when no
// chain connection is configured; the balances endpoint then returns 503.
func NewAccountHandler(view AccountView, balances BalanceProvider, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		view:     view,
		balances: balances,
		logger:   logger,
	}
}

// ListTrades returns the account's fills from the account's perspective.
// GET /api/accounts/{address}/trades
func (h *AccountHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}
	writeJSON(w, http.StatusOK, listTradesResponse{
		Trades: toOrderViews(h.view.MyTrades(account)),
	})
}

// listOrdersResponse wraps the open orders response.
type listOrdersResponse struct {
	Orders []orderView `json:"orders"`
}

// ListOpenOrders returns the account's open orders, newest first.
// GET /api/accounts/{address}/orders
func (h *AccountHandler) ListOpenOrders(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{
		Orders: toOrderViews(h.view.MyOpenOrders(account)),
	})
}

// balancesResponse is the JSON shape of an account's balance set.
type balancesResponse struct {
	WalletEther   string    `json:"wallet_ether"`
	WalletToken   string    `json:"wallet_token"`
	ExchangeEther string    `json:"exchange_ether"`
	ExchangeToken string    `json:"exchange_token"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// GetBalances returns the account's wallet and exchange balances.
// GET /api/accounts/{address}/balances
func (h *AccountHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}
	if h.balances == nil {
		writeError(w, http.StatusServiceUnavailable, "balance queries not available")
		return
	}

	set, err := h.balances.Balances(r.Context(), account)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: balance query failed",
			slog.String("account", account.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to query balances")
		return
	}

	writeJSON(w, http.StatusOK, balancesResponse{
		WalletEther:   set.WalletEther.String(),
		WalletToken:   set.WalletToken.String(),
		ExchangeEther: set.ExchangeEther.String(),
		ExchangeToken: set.ExchangeToken.String(),
		FetchedAt:     set.FetchedAt,
	})
}
