// Package service holds the account-facing query services built on top of
// the chain client and caches.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexwatch/internal/domain"
	"github.com/alanyoungcy/dexwatch/internal/wei"
)

// BalanceService answers the four balances the display layer shows for an
// account: wallet and exchange holdings of the native asset and the traded
// token. Results are cached until a Deposit or Withdraw event for the
// account invalidates them.
type BalanceService struct {
	reader domain.BalanceReader
	cache  domain.BalanceCache // nil disables caching
	token  common.Address
	logger *slog.Logger
}

// NewBalanceService creates a BalanceService for the given traded token.
func NewBalanceService(reader domain.BalanceReader, cache domain.BalanceCache, token common.Address, logger *slog.Logger) *BalanceService {
	return &BalanceService{
		reader: reader,
		cache:  cache,
		token:  token,
		logger: logger.With(slog.String("component", "balance_service")),
	}
}

// Balances returns the account's balance set, serving from cache when
// possible. Cache failures degrade to a fresh chain read, never to an error.
func (s *BalanceService) Balances(ctx context.Context, account common.Address) (domain.BalanceSet, error) {
	if s.cache != nil {
		set, err := s.cache.Get(ctx, account)
		if err == nil {
			return set, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("balance cache read failed",
				slog.String("account", account.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}

	set, err := s.fetch(ctx, account)
	if err != nil {
		return domain.BalanceSet{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, account, set); err != nil {
			s.logger.Warn("balance cache write failed",
				slog.String("account", account.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	return set, nil
}

// Invalidate drops the cached balances for an account. Called by the feed
// coordinator whenever a Deposit or Withdraw event for the account arrives.
func (s *BalanceService) Invalidate(ctx context.Context, account common.Address) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, account); err != nil {
		s.logger.Warn("balance cache invalidation failed",
			slog.String("account", account.Hex()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BalanceService) fetch(ctx context.Context, account common.Address) (domain.BalanceSet, error) {
	walletEther, err := s.reader.WalletBalance(ctx, domain.NativeAsset, account)
	if err != nil {
		return domain.BalanceSet{}, fmt.Errorf("service: wallet ether balance: %w", err)
	}
	walletToken, err := s.reader.WalletBalance(ctx, s.token, account)
	if err != nil {
		return domain.BalanceSet{}, fmt.Errorf("service: wallet token balance: %w", err)
	}
	exchangeEther, err := s.reader.ExchangeBalance(ctx, domain.NativeAsset, account)
	if err != nil {
		return domain.BalanceSet{}, fmt.Errorf("service: exchange ether balance: %w", err)
	}
	exchangeToken, err := s.reader.ExchangeBalance(ctx, s.token, account)
	if err != nil {
		return domain.BalanceSet{}, fmt.Errorf("service: exchange token balance: %w", err)
	}

	set := domain.BalanceSet{FetchedAt: time.Now().UTC()}
	if d, ok := wei.FromWei(walletEther); ok {
		set.WalletEther = wei.FormatBalance(d)
	}
	if d, ok := wei.FromWei(walletToken); ok {
		set.WalletToken = wei.FormatBalance(d)
	}
	if d, ok := wei.FromWei(exchangeEther); ok {
		set.ExchangeEther = wei.FormatBalance(d)
	}
	if d, ok := wei.FromWei(exchangeToken); ok {
		set.ExchangeToken = wei.FormatBalance(d)
	}
	return set, nil
}
