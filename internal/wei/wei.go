// Package wei converts the exchange contract's fixed-point integer amounts
// (18 decimals) to display values and applies the display rounding contracts.
package wei

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed-point scale of every on-chain amount.
const Decimals = 18

// PricePrecision is the display precision of token prices. All downstream
// price comparisons (sorting, red/green classification) use the rounded
// value, so two trades whose prices differ only past the fifth decimal are
// treated as equal.
const PricePrecision = 5

// BalancePrecision is the display precision of account balances.
const BalancePrecision = 2

// FromWei converts a raw fixed-point amount to display units. The boolean is
// false when the input is absent; an absent amount is never treated as zero.
func FromWei(raw *big.Int) (decimal.Decimal, bool) {
	if raw == nil {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromBigInt(raw, -Decimals), true
}

// ToWei converts a display amount back to the raw fixed-point integer,
// truncating anything past the 18th decimal.
func ToWei(display decimal.Decimal) *big.Int {
	return display.Shift(Decimals).Truncate(0).BigInt()
}

// RoundPrice rounds a price to the 5-decimal display contract.
func RoundPrice(price decimal.Decimal) decimal.Decimal {
	return price.Round(PricePrecision)
}

// FormatBalance rounds a display amount to the 2-decimal balance contract.
func FormatBalance(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(BalancePrecision)
}
