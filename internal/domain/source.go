package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// EventKind names one of the exchange contract's event streams.
type EventKind string

const (
	EventKindOrder    EventKind = "Order"
	EventKindCancel   EventKind = "Cancel"
	EventKindTrade    EventKind = "Trade"
	EventKindDeposit  EventKind = "Deposit"
	EventKindWithdraw EventKind = "Withdraw"
)

// Event is a single decoded event from the live feed. Exactly one of the
// payload pointers is set, matching Kind.
type Event struct {
	Kind         EventKind
	Order        *RawOrder
	Cancellation *Cancellation
	Trade        *Trade
	Transfer     *Transfer
}

// EventSubscription is a live push subscription over all event kinds.
// Delivery errors are reported on Err without closing Events; Close tears the
// subscription down and is safe to call more than once.
type EventSubscription interface {
	Events() <-chan Event
	Err() <-chan error
	Close()
}

// EventSource supplies the exchange contract's event log: a finite backfill
// per event kind over the full history range, and a live push subscription.
type EventSource interface {
	OrderHistory(ctx context.Context) ([]RawOrder, error)
	CancellationHistory(ctx context.Context) ([]Cancellation, error)
	TradeHistory(ctx context.Context) ([]Trade, error)
	Subscribe(ctx context.Context) (EventSubscription, error)
}

// BalanceReader answers point-in-time balance queries. Amounts are raw
// fixed-point integers (wei scale).
type BalanceReader interface {
	// WalletBalance is the account's own holding of the asset: the native
	// balance when asset is NativeAsset, the token balance otherwise.
	WalletBalance(ctx context.Context, asset, account common.Address) (*big.Int, error)
	// ExchangeBalance is the account's balance deposited in the exchange.
	ExchangeBalance(ctx context.Context, asset, account common.Address) (*big.Int, error)
}

// BalanceSet bundles the four balances the display layer shows for one
// account, already converted to display units.
type BalanceSet struct {
	WalletEther   decimal.Decimal
	WalletToken   decimal.Decimal
	ExchangeEther decimal.Decimal
	ExchangeToken decimal.Decimal
	FetchedAt     time.Time
}

// BalanceCache stores balance query results until a Deposit or Withdraw event
// invalidates them.
type BalanceCache interface {
	Get(ctx context.Context, account common.Address) (BalanceSet, error)
	Set(ctx context.Context, account common.Address, balances BalanceSet) error
	Invalidate(ctx context.Context, account common.Address) error
}

// SignalBus provides pub/sub fan-out of update notifications to API consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
