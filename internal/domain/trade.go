package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Trade is the fact recorded when an order is filled. User is the maker whose
// order was matched; UserFill is the taker. The trade carries its own copy of
// the terms at fill time; the engine does not reinterpret partial fills.
type Trade struct {
	ID         uint64
	User       common.Address
	UserFill   common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  int64
}

// Transfer is a Deposit or Withdraw event. Transfers never feed the order or
// trade projections; they only invalidate cached balances for the account.
type Transfer struct {
	Token    common.Address
	User     common.Address
	Amount   *big.Int
	Balance  *big.Int // account's exchange balance for Token after the transfer
	Withdraw bool
}
