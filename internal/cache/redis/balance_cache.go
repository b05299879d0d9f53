package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// balanceTTL caps how long a cached balance set survives without an
// invalidating transfer event, bounding staleness if a Deposit or Withdraw
// notification is ever missed.
const balanceTTL = 10 * time.Minute

// BalanceCache implements domain.BalanceCache using one Redis hash per
// account at "balances:{address}" holding the four display balances and the
// fetch timestamp.
type BalanceCache struct {
	rdb *redis.Client
}

// NewBalanceCache creates a BalanceCache backed by the given Client.
func NewBalanceCache(c *Client) *BalanceCache {
	return &BalanceCache{rdb: c.Underlying()}
}

func balanceKey(account common.Address) string {
	return "balances:" + strings.ToLower(account.Hex())
}

// Set stores a balance set for an account.
func (bc *BalanceCache) Set(ctx context.Context, account common.Address, balances domain.BalanceSet) error {
	fields := map[string]interface{}{
		"wallet_ether":   balances.WalletEther.String(),
		"wallet_token":   balances.WalletToken.String(),
		"exchange_ether": balances.ExchangeEther.String(),
		"exchange_token": balances.ExchangeToken.String(),
		"ts":             strconv.FormatInt(balances.FetchedAt.UnixNano(), 10),
	}

	key := balanceKey(account)
	pipe := bc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, balanceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set balances %s: %w", account.Hex(), err)
	}
	return nil
}

// Get retrieves the cached balance set for an account. It returns
// domain.ErrNotFound when nothing is cached.
func (bc *BalanceCache) Get(ctx context.Context, account common.Address) (domain.BalanceSet, error) {
	vals, err := bc.rdb.HGetAll(ctx, balanceKey(account)).Result()
	if err != nil {
		return domain.BalanceSet{}, fmt.Errorf("redis: get balances %s: %w", account.Hex(), err)
	}
	if len(vals) == 0 {
		return domain.BalanceSet{}, domain.ErrNotFound
	}

	var set domain.BalanceSet
	for field, dst := range map[string]*decimal.Decimal{
		"wallet_ether":   &set.WalletEther,
		"wallet_token":   &set.WalletToken,
		"exchange_ether": &set.ExchangeEther,
		"exchange_token": &set.ExchangeToken,
	} {
		raw, ok := vals[field]
		if !ok {
			return domain.BalanceSet{}, domain.ErrNotFound
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.BalanceSet{}, fmt.Errorf("redis: parse %s: %w", field, err)
		}
		*dst = d
	}

	if raw, ok := vals["ts"]; ok {
		if nanos, err := strconv.ParseInt(raw, 10, 64); err == nil {
			set.FetchedAt = time.Unix(0, nanos)
		}
	}
	return set, nil
}

// Invalidate drops the cached balances for an account. Missing keys are not
// an error.
func (bc *BalanceCache) Invalidate(ctx context.Context, account common.Address) error {
	if err := bc.rdb.Del(ctx, balanceKey(account)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate balances %s: %w", account.Hex(), err)
	}
	return nil
}
