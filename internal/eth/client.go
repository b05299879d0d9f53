// Package eth implements the event-log source against the exchange contract:
// historical log queries, the live log subscription, and point-in-time
// balance reads. It is the only package that speaks to the chain.
package eth

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// Backend is the slice of the Ethereum client the event source needs.
// *ethclient.Client satisfies it; tests substitute a fake.
type Backend interface {
	ethereum.LogFilterer
	ethereum.ContractCaller
	ethereum.ChainStateReader
}

// Client implements domain.EventSource and domain.BalanceReader against a
// single exchange contract.
type Client struct {
	backend  Backend
	exchange common.Address
	abi      abi.ABI
	erc20    abi.ABI
	logger   *slog.Logger
}

// Dial connects to an Ethereum node. The endpoint must support log
// subscriptions (WebSocket or IPC) for the live feed to work.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("eth: dial %s: %w", rawURL, err)
	}
	return client, nil
}

// NewClient creates a Client for the exchange contract at the given address.
func NewClient(backend Backend, exchange common.Address, logger *slog.Logger) (*Client, error) {
	exchangeABI, erc20ABI, err := parseABIs()
	if err != nil {
		return nil, err
	}
	return &Client{
		backend:  backend,
		exchange: exchange,
		abi:      exchangeABI,
		erc20:    erc20ABI,
		logger:   logger.With(slog.String("component", "eth_client")),
	}, nil
}

// OrderHistory returns every Order event from block 0 to latest. Malformed
// logs are skipped with a warning; they never abort the batch.
func (c *Client) OrderHistory(ctx context.Context) ([]domain.RawOrder, error) {
	logs, err := c.filter(ctx, eventOrder)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.RawOrder, 0, len(logs))
	for _, lg := range logs {
		ev, err := c.ParseLog(lg)
		if err != nil {
			c.logger.Warn("skipping malformed order log",
				slog.Uint64("block", lg.BlockNumber),
				slog.String("error", err.Error()),
			)
			continue
		}
		orders = append(orders, *ev.Order)
	}
	return orders, nil
}

// CancellationHistory returns every Cancel event from block 0 to latest.
func (c *Client) CancellationHistory(ctx context.Context) ([]domain.Cancellation, error) {
	logs, err := c.filter(ctx, eventCancel)
	if err != nil {
		return nil, err
	}

	cancellations := make([]domain.Cancellation, 0, len(logs))
	for _, lg := range logs {
		ev, err := c.ParseLog(lg)
		if err != nil {
			c.logger.Warn("skipping malformed cancel log",
				slog.Uint64("block", lg.BlockNumber),
				slog.String("error", err.Error()),
			)
			continue
		}
		cancellations = append(cancellations, *ev.Cancellation)
	}
	return cancellations, nil
}

// TradeHistory returns every Trade event from block 0 to latest.
func (c *Client) TradeHistory(ctx context.Context) ([]domain.Trade, error) {
	logs, err := c.filter(ctx, eventTrade)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(logs))
	for _, lg := range logs {
		ev, err := c.ParseLog(lg)
		if err != nil {
			c.logger.Warn("skipping malformed trade log",
				slog.Uint64("block", lg.BlockNumber),
				slog.String("error", err.Error()),
			)
			continue
		}
		trades = append(trades, *ev.Trade)
	}
	return trades, nil
}

// filter queries the full history of a single event kind on the exchange
// contract. A nil ToBlock means latest.
func (c *Client) filter(ctx context.Context, event string) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{c.exchange},
		Topics:    [][]common.Hash{{c.abi.Events[event].ID}},
	}

	logs, err := c.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("eth: filter %s logs: %w", event, err)
	}
	return logs, nil
}

// ExchangeBalance reads balanceOf(asset, account) on the exchange contract:
// the amount the account has deposited for trading.
func (c *Client) ExchangeBalance(ctx context.Context, asset, account common.Address) (*big.Int, error) {
	data, err := c.abi.Pack(fnBalanceOf, asset, account)
	if err != nil {
		return nil, fmt.Errorf("eth: pack balanceOf: %w", err)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.exchange, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth: call exchange balanceOf: %w", err)
	}

	results, err := c.abi.Unpack(fnBalanceOf, out)
	if err != nil {
		return nil, fmt.Errorf("eth: unpack balanceOf: %w", err)
	}
	return abi.ConvertType(results[0], new(big.Int)).(*big.Int), nil
}

// WalletBalance reads the account's own holding of the asset: the native
// chain balance for the native sentinel, the ERC-20 balance otherwise.
func (c *Client) WalletBalance(ctx context.Context, asset, account common.Address) (*big.Int, error) {
	if asset == domain.NativeAsset {
		balance, err := c.backend.BalanceAt(ctx, account, nil)
		if err != nil {
			return nil, fmt.Errorf("eth: native balance: %w", err)
		}
		return balance, nil
	}

	data, err := c.erc20.Pack(fnBalanceOf, account)
	if err != nil {
		return nil, fmt.Errorf("eth: pack erc20 balanceOf: %w", err)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &asset, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth: call erc20 balanceOf: %w", err)
	}

	results, err := c.erc20.Unpack(fnBalanceOf, out)
	if err != nil {
		return nil, fmt.Errorf("eth: unpack erc20 balanceOf: %w", err)
	}
	return abi.ConvertType(results[0], new(big.Int)).(*big.Int), nil
}
