package amount

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent is a ratio stored as a fraction, so 0.05 renders as "5.00%".
type Percent struct {
	fraction decimal.Decimal
}

// NewPercent builds a Percent from a fraction.
func NewPercent(fraction decimal.Decimal) Percent {
	return Percent{fraction: fraction}
}

// PercentFromValue builds a Percent from a percentage value (5 => 5%).
func PercentFromValue(value decimal.Decimal) Percent {
	return Percent{fraction: value.Div(hundred)}
}

func (p Percent) Fraction() decimal.Decimal { return p.fraction }

// Value returns the percentage value (0.05 => 5).
func (p Percent) Value() decimal.Decimal { return p.fraction.Mul(hundred) }

func (p Percent) Gt(other Percent) bool { return p.fraction.GreaterThan(other.fraction) }

func (p Percent) ToFixed(n int32) string {
	return p.Value().StringFixed(n) + "%"
}

func (p Percent) String() string {
	return p.ToFixed(2)
}
