package eth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// subscriptionBuffer sizes the decoded-event and raw-log channels. A slow
// consumer backpressures the reader rather than dropping events.
const subscriptionBuffer = 256

// Subscribe opens one live log subscription covering all five event kinds
// and decodes each log into a domain event. Decode failures are reported on
// Err and do not stop delivery; a transport failure is reported and ends the
// stream, leaving reconnection to the caller.
func (c *Client) Subscribe(ctx context.Context) (domain.EventSubscription, error) {
	topics := []common.Hash{
		c.abi.Events[eventOrder].ID,
		c.abi.Events[eventCancel].ID,
		c.abi.Events[eventTrade].ID,
		c.abi.Events[eventDeposit].ID,
		c.abi.Events[eventWithdraw].ID,
	}
	query := ethereum.FilterQuery{
		Addresses: []common.Address{c.exchange},
		Topics:    [][]common.Hash{topics},
	}

	logs := make(chan types.Log, subscriptionBuffer)
	sub, err := c.backend.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, fmt.Errorf("eth: subscribe logs: %w", err)
	}

	s := &subscription{
		events: make(chan domain.Event, subscriptionBuffer),
		errs:   make(chan error, 16),
		done:   make(chan struct{}),
		sub:    sub,
	}
	go s.pump(c, logs)
	return s, nil
}

// subscription adapts an ethereum.Subscription of raw logs into a stream of
// decoded domain events.
type subscription struct {
	events    chan domain.Event
	errs      chan error
	done      chan struct{}
	sub       ethereum.Subscription
	closeOnce sync.Once
}

func (s *subscription) Events() <-chan domain.Event { return s.events }
func (s *subscription) Err() <-chan error           { return s.errs }

// Close unsubscribes and stops the pump. Safe to call more than once.
func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		s.sub.Unsubscribe()
		close(s.done)
	})
}

func (s *subscription) pump(c *Client, logs <-chan types.Log) {
	defer close(s.events)

	for {
		select {
		case <-s.done:
			return
		case err := <-s.sub.Err():
			if err != nil {
				s.report(fmt.Errorf("eth: subscription: %w", err))
			}
			return
		case lg := <-logs:
			if lg.Removed {
				// Reorged-out log; the append-only store cannot retract it,
				// so never deliver it in the first place.
				c.logger.Warn("ignoring removed log", slog.Uint64("block", lg.BlockNumber))
				continue
			}
			ev, err := c.ParseLog(lg)
			if err != nil {
				s.report(fmt.Errorf("%w: %s", domain.ErrMalformedEvent, err))
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// report delivers an error without ever blocking the pump.
func (s *subscription) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// ParseLog decodes a raw exchange contract log into a domain event.
func (c *Client) ParseLog(lg types.Log) (domain.Event, error) {
	if len(lg.Topics) == 0 {
		return domain.Event{}, fmt.Errorf("eth: log without topics")
	}

	switch lg.Topics[0] {
	case c.abi.Events[eventOrder].ID:
		var raw orderEvent
		if err := c.abi.UnpackIntoInterface(&raw, eventOrder, lg.Data); err != nil {
			return domain.Event{}, fmt.Errorf("eth: unpack Order: %w", err)
		}
		return domain.Event{Kind: domain.EventKindOrder, Order: rawOrderFrom(raw)}, nil

	case c.abi.Events[eventCancel].ID:
		var raw orderEvent
		if err := c.abi.UnpackIntoInterface(&raw, eventCancel, lg.Data); err != nil {
			return domain.Event{}, fmt.Errorf("eth: unpack Cancel: %w", err)
		}
		return domain.Event{
			Kind: domain.EventKindCancel,
			Cancellation: &domain.Cancellation{
				ID:        raw.Id.Uint64(),
				User:      raw.User,
				Timestamp: raw.Timestamp.Int64(),
			},
		}, nil

	case c.abi.Events[eventTrade].ID:
		var raw tradeEvent
		if err := c.abi.UnpackIntoInterface(&raw, eventTrade, lg.Data); err != nil {
			return domain.Event{}, fmt.Errorf("eth: unpack Trade: %w", err)
		}
		return domain.Event{
			Kind: domain.EventKindTrade,
			Trade: &domain.Trade{
				ID:         raw.Id.Uint64(),
				User:       raw.User,
				UserFill:   raw.UserFill,
				TokenGet:   raw.TokenGet,
				AmountGet:  raw.AmountGet,
				TokenGive:  raw.TokenGive,
				AmountGive: raw.AmountGive,
				Timestamp:  raw.Timestamp.Int64(),
			},
		}, nil

	case c.abi.Events[eventDeposit].ID, c.abi.Events[eventWithdraw].ID:
		var raw transferEvent
		name := eventDeposit
		kind := domain.EventKindDeposit
		withdraw := false
		if lg.Topics[0] == c.abi.Events[eventWithdraw].ID {
			name = eventWithdraw
			kind = domain.EventKindWithdraw
			withdraw = true
		}
		if err := c.abi.UnpackIntoInterface(&raw, name, lg.Data); err != nil {
			return domain.Event{}, fmt.Errorf("eth: unpack %s: %w", name, err)
		}
		return domain.Event{
			Kind: kind,
			Transfer: &domain.Transfer{
				Token:    raw.Token,
				User:     raw.User,
				Amount:   raw.Amount,
				Balance:  raw.Balance,
				Withdraw: withdraw,
			},
		}, nil
	}

	return domain.Event{}, fmt.Errorf("eth: unknown event topic %s", lg.Topics[0])
}

func rawOrderFrom(raw orderEvent) *domain.RawOrder {
	return &domain.RawOrder{
		ID:         raw.Id.Uint64(),
		User:       raw.User,
		TokenGet:   raw.TokenGet,
		AmountGet:  raw.AmountGet,
		TokenGive:  raw.TokenGive,
		AmountGive: raw.AmountGive,
		Timestamp:  raw.Timestamp.Int64(),
	}
}
