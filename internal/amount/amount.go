package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"swapScope/internal/errs"
)

// DivisionGuard is the number of digits kept beyond the operands'
// decimal places when dividing. Rounding to the stated precision only
// happens when the amount is formatted or converted to base units.
const DivisionGuard = 18

// Amount is an exact quantity expressed in asset units with a stated
// number of decimal places. The zero value is a valid zero with no
// decimals.
type Amount struct {
	value    decimal.Decimal
	decimals int32
}

// FromBase builds an Amount from an integer number of base units.
func FromBase(base *big.Int, decimals int32) Amount {
	decimals = clampDecimals(decimals)
	if base == nil {
		return Zero(decimals)
	}
	return Amount{
		value:    decimal.NewFromBigInt(base, -decimals),
		decimals: decimals,
	}
}

// FromBaseInt64 is FromBase for small integer values.
func FromBaseInt64(base int64, decimals int32) Amount {
	return FromBase(big.NewInt(base), decimals)
}

// FromBaseString parses a base-unit integer string such as "100000000".
func FromBaseString(base string, decimals int32) (Amount, error) {
	if decimals < 0 {
		return Amount{}, fmt.Errorf("%w: negative decimal places %d", errs.ErrInvalidParameter, decimals)
	}
	if base == "" {
		return Zero(decimals), nil
	}
	parsed, ok := new(big.Int).SetString(base, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: base amount %q", errs.ErrInvalidParameter, base)
	}
	return FromBase(parsed, decimals), nil
}

// FromAsset builds an Amount from a human-scale value.
func FromAsset(value decimal.Decimal, decimals int32) Amount {
	return Amount{value: value, decimals: clampDecimals(decimals)}
}

// FromAssetString parses a human-scale decimal string such as "1.5".
func FromAssetString(value string, decimals int32) (Amount, error) {
	if decimals < 0 {
		return Amount{}, fmt.Errorf("%w: negative decimal places %d", errs.ErrInvalidParameter, decimals)
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: asset amount %q", errs.ErrInvalidParameter, value)
	}
	return FromAsset(parsed, decimals), nil
}

// Zero returns a zero Amount with the given decimal places.
func Zero(decimals int32) Amount {
	return Amount{value: decimal.Zero, decimals: clampDecimals(decimals)}
}

// Decimal returns the asset-unit value including any guard digits.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// Decimals returns the stated decimal places.
func (a Amount) Decimals() int32 {
	return a.decimals
}

// ToBase converts to integer base units at the given decimal places.
// Digits beyond that precision are floored.
func (a Amount) ToBase(decimals int32) *big.Int {
	return a.value.Shift(clampDecimals(decimals)).RoundFloor(0).BigInt()
}

// BaseAmount converts to base units at the Amount's own decimal places.
func (a Amount) BaseAmount() *big.Int {
	return a.ToBase(a.decimals)
}

// Rescale returns the same value with different stated decimal places.
func (a Amount) Rescale(decimals int32) Amount {
	return Amount{value: a.value, decimals: clampDecimals(decimals)}
}

// clampDecimals treats negative decimal places as zero.
func clampDecimals(decimals int32) int32 {
	if decimals < 0 {
		return 0
	}
	return decimals
}

func (a Amount) Add(b Amount) Amount {
	return Amount{value: a.value.Add(b.value), decimals: maxDecimals(a, b)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{value: a.value.Sub(b.value), decimals: maxDecimals(a, b)}
}

func (a Amount) Mul(b Amount) Amount {
	return Amount{value: a.value.Mul(b.value), decimals: maxDecimals(a, b)}
}

// MulDecimal scales the Amount by a plain factor, keeping its decimals.
func (a Amount) MulDecimal(factor decimal.Decimal) Amount {
	return Amount{value: a.value.Mul(factor), decimals: a.decimals}
}

// Div divides a by b. Dividing by a zero-magnitude Amount returns
// errs.ErrDivisionByZero.
func (a Amount) Div(b Amount) (Amount, error) {
	if b.value.IsZero() {
		return Amount{}, errs.ErrDivisionByZero
	}
	decimals := maxDecimals(a, b)
	return Amount{
		value:    a.value.DivRound(b.value, decimals+DivisionGuard),
		decimals: decimals,
	}, nil
}

// Cmp compares the values, ignoring stated decimals.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

func (a Amount) Eq(b Amount) bool  { return a.Cmp(b) == 0 }
func (a Amount) Gt(b Amount) bool  { return a.Cmp(b) > 0 }
func (a Amount) Gte(b Amount) bool { return a.Cmp(b) >= 0 }
func (a Amount) Lt(b Amount) bool  { return a.Cmp(b) < 0 }
func (a Amount) Lte(b Amount) bool { return a.Cmp(b) <= 0 }

func (a Amount) IsZero() bool     { return a.value.IsZero() }
func (a Amount) IsPositive() bool { return a.value.IsPositive() }
func (a Amount) IsNegative() bool { return a.value.IsNegative() }

// Min returns the smaller of the two amounts.
func Min(a, b Amount) Amount {
	if a.Lte(b) {
		return a
	}
	return b
}

// Max returns the larger of the two amounts.
func Max(a, b Amount) Amount {
	if a.Gte(b) {
		return a
	}
	return b
}

// ToFixed formats with exactly n fractional digits, rounding half up
// (away from zero).
func (a Amount) ToFixed(n int32) string {
	return a.value.StringFixed(n)
}

// ToFixedInverted formats 1/a with n fractional digits.
func (a Amount) ToFixedInverted(n int32) (string, error) {
	if a.value.IsZero() {
		return "", errs.ErrDivisionByZero
	}
	inverted := decimal.NewFromInt(1).DivRound(a.value, n+DivisionGuard)
	return inverted.StringFixed(n), nil
}

// String formats with the stated decimal places.
func (a Amount) String() string {
	return a.ToFixed(a.decimals)
}

func maxDecimals(a, b Amount) int32 {
	if a.decimals > b.decimals {
		return a.decimals
	}
	return b.decimals
}
