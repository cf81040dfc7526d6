package finance

import (
	"github.com/shopspring/decimal"
)

// ToleranceKind selects how a Tolerance value is read.
type ToleranceKind string

const (
	ToleranceBps      ToleranceKind = "bps"
	ToleranceAbsolute ToleranceKind = "abs"
)

var tenThousand = decimal.NewFromInt(10000)

// Tolerance is an allowed deviation, either in basis points of the reference
// value or in absolute units.
type Tolerance struct {
	Kind  ToleranceKind   `json:"kind" yaml:"kind"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// Bps builds a basis-point tolerance.
func Bps(v int64) Tolerance {
	return Tolerance{Kind: ToleranceBps, Value: decimal.NewFromInt(v)}
}

// Absolute builds an absolute tolerance.
func Absolute(v decimal.Decimal) Tolerance {
	return Tolerance{Kind: ToleranceAbsolute, Value: v}
}

// IsWithinTolerance reports whether b deviates from the reference a by no more
// than tol. The boundary is inclusive and the bps comparison is exact:
// |a-b| * 10000 <= bps * |a|.
func IsWithinTolerance(a, b decimal.Decimal, tol Tolerance) bool {
	diff := a.Sub(b).Abs()
	if tol.Kind == ToleranceAbsolute {
		return diff.LessThanOrEqual(tol.Value)
	}
	return diff.Mul(tenThousand).LessThanOrEqual(tol.Value.Mul(a.Abs()))
}

// DeviationBps is |a-b| in basis points of a. It is zero when a is zero.
func DeviationBps(a, b decimal.Decimal) decimal.Decimal {
	if a.IsZero() {
		return decimal.Zero
	}
	return a.Sub(b).Abs().Mul(tenThousand).Div(a.Abs())
}
