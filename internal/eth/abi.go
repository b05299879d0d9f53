package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Event and function names on the exchange contract.
const (
	eventOrder    = "Order"
	eventCancel   = "Cancel"
	eventTrade    = "Trade"
	eventDeposit  = "Deposit"
	eventWithdraw = "Withdraw"

	fnBalanceOf = "balanceOf"
)

// exchangeABIJSON covers the slice of the exchange contract this engine
// consumes: the five event streams and the balance query. No event parameter
// is indexed, so every field arrives in the log data.
const exchangeABIJSON = `[
	{"type":"event","name":"Order","anonymous":false,"inputs":[
		{"name":"id","type":"uint256","indexed":false},
		{"name":"user","type":"address","indexed":false},
		{"name":"tokenGet","type":"address","indexed":false},
		{"name":"amountGet","type":"uint256","indexed":false},
		{"name":"tokenGive","type":"address","indexed":false},
		{"name":"amountGive","type":"uint256","indexed":false},
		{"name":"timestamp","type":"uint256","indexed":false}]},
	{"type":"event","name":"Cancel","anonymous":false,"inputs":[
		{"name":"id","type":"uint256","indexed":false},
		{"name":"user","type":"address","indexed":false},
		{"name":"tokenGet","type":"address","indexed":false},
		{"name":"amountGet","type":"uint256","indexed":false},
		{"name":"tokenGive","type":"address","indexed":false},
		{"name":"amountGive","type":"uint256","indexed":false},
		{"name":"timestamp","type":"uint256","indexed":false}]},
	{"type":"event","name":"Trade","anonymous":false,"inputs":[
		{"name":"id","type":"uint256","indexed":false},
		{"name":"user","type":"address","indexed":false},
		{"name":"tokenGet","type":"address","indexed":false},
		{"name":"amountGet","type":"uint256","indexed":false},
		{"name":"tokenGive","type":"address","indexed":false},
		{"name":"amountGive","type":"uint256","indexed":false},
		{"name":"userFill","type":"address","indexed":false},
		{"name":"timestamp","type":"uint256","indexed":false}]},
	{"type":"event","name":"Deposit","anonymous":false,"inputs":[
		{"name":"token","type":"address","indexed":false},
		{"name":"user","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"balance","type":"uint256","indexed":false}]},
	{"type":"event","name":"Withdraw","anonymous":false,"inputs":[
		{"name":"token","type":"address","indexed":false},
		{"name":"user","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"balance","type":"uint256","indexed":false}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"","type":"address"},
		{"name":"","type":"address"}],"outputs":[
		{"name":"","type":"uint256"}]}
]`

// erc20ABIJSON is the minimal ERC-20 surface needed for wallet token
// balances.
const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"owner","type":"address"}],"outputs":[
		{"name":"","type":"uint256"}]}
]`

// orderEvent matches the Order and Cancel event layouts.
type orderEvent struct {
	Id         *big.Int
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  *big.Int
}

// tradeEvent matches the Trade event layout.
type tradeEvent struct {
	Id         *big.Int
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	UserFill   common.Address
	Timestamp  *big.Int
}

// transferEvent matches the Deposit and Withdraw event layouts.
type transferEvent struct {
	Token   common.Address
	User    common.Address
	Amount  *big.Int
	Balance *big.Int
}

func parseABIs() (exchange abi.ABI, erc20 abi.ABI, err error) {
	exchange, err = abi.JSON(strings.NewReader(exchangeABIJSON))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, fmt.Errorf("eth: parse exchange abi: %w", err)
	}
	erc20, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, fmt.Errorf("eth: parse erc20 abi: %w", err)
	}
	return exchange, erc20, nil
}
