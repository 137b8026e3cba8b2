// Package scale converts human decimal amounts into the exchange's integer
// base units and back.
//
// Quantities truncate toward zero so an order is never larger than asked
// for. Prices round half-up.
package scale

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrNegativeDecimals = errors.New("decimal places must not be negative")
	ErrTooManyDecimals  = errors.New("too many decimal places")
	ErrOverflow         = errors.New("scaled value overflows int64")
)

// MaxDecimals is the largest scale whose unit 10^n still fits in an int64.
const MaxDecimals = 18

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// Parse reads a human decimal such as "0.015" or "2500.5".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// HumanToBase returns amount * 10^decimals with excess precision dropped.
// Example: 1.23456 at 6 decimals -> 1234560; 0.1234567 at 6 -> 123456.
func HumanToBase(amount decimal.Decimal, decimals int32) (int64, error) {
	if err := check(amount, decimals); err != nil {
		return 0, err
	}
	return toInt64(amount.Shift(decimals).Truncate(0))
}

// PriceToBase returns price * 10^exp rounded half-up to a whole base unit.
// Example: 100.005 at exp 6 -> 100005000; 1.0000005 at exp 6 -> 1000001.
func PriceToBase(price decimal.Decimal, exp int32) (int64, error) {
	if err := check(price, exp); err != nil {
		return 0, err
	}
	// Round is half away from zero, which is half-up for non-negative input.
	return toInt64(price.Shift(exp).Round(0))
}

// BaseToHuman is the inverse of HumanToBase / PriceToBase.
func BaseToHuman(units int64, decimals int32) decimal.Decimal {
	return decimal.New(units, -decimals)
}

func check(v decimal.Decimal, decimals int32) error {
	if decimals < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDecimals, decimals)
	}
	if decimals > MaxDecimals {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyDecimals, decimals, MaxDecimals)
	}
	if v.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, v.String())
	}
	return nil
}

func toInt64(d decimal.Decimal) (int64, error) {
	if d.GreaterThan(maxInt64) {
		return 0, ErrOverflow
	}
	return d.IntPart(), nil
}
