package finance

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// YTMMaxIterations bounds the Newton-Raphson solver.
	YTMMaxIterations = 100
	// YTMTolerance is the convergence threshold as a fraction of face value.
	YTMTolerance = 1e-6
)

// Cashflow is a single payment at Time years from the pricing date.
type Cashflow struct {
	Time   decimal.Decimal
	Amount decimal.Decimal
}

// YieldToMaturity solves price = sum(cf / (1+y)^t) for the annually compounded
// yield y by Newton-Raphson, starting at guess. A step that would leave the
// domain y > -1 is replaced by the midpoint between y and -1. It stops once the
// price error is below YTMTolerance * face and returns ErrNotConverged after
// YTMMaxIterations.
func YieldToMaturity(price, face decimal.Decimal, cashflows []Cashflow, guess float64) (decimal.Decimal, error) {
	if !price.IsPositive() || !face.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price and face value must be positive", ErrInvalidCalculationInput)
	}
	if len(cashflows) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no cashflows", ErrInvalidCalculationInput)
	}

	target := price.InexactFloat64()
	tol := YTMTolerance * face.InexactFloat64()
	times := make([]float64, len(cashflows))
	amounts := make([]float64, len(cashflows))
	for i, cf := range cashflows {
		times[i] = cf.Time.InexactFloat64()
		amounts[i] = cf.Amount.InexactFloat64()
	}

	y := guess
	for i := 0; i < YTMMaxIterations; i++ {
		pv, dpv := 0.0, 0.0
		for k := range times {
			disc := math.Pow(1+y, -times[k])
			pv += amounts[k] * disc
			dpv -= times[k] * amounts[k] * disc / (1 + y)
		}
		diff := pv - target
		if math.Abs(diff) < tol {
			return decimal.NewFromFloat(y), nil
		}
		if dpv == 0 || math.IsNaN(dpv) || math.IsInf(dpv, 0) {
			break
		}
		next := y - diff/dpv
		if math.IsNaN(next) {
			break
		}
		if next <= -1 {
			next = (y - 1) / 2
		}
		y = next
	}
	return decimal.Zero, fmt.Errorf("%w: yield to maturity after %d iterations", ErrNotConverged, YTMMaxIterations)
}

// BondCashflows builds the remaining coupon and principal schedule of a bond
// from settlement to maturity. Times are Actual/365 year fractions.
func BondCashflows(face, couponRate decimal.Decimal, frequency int, settlement, maturity time.Time) ([]Cashflow, error) {
	if !ValidFrequency(frequency) {
		return nil, fmt.Errorf("%w: coupon frequency %d not in {1,2,4,12}", ErrInvalidCalculationInput, frequency)
	}
	settlement, maturity = DateOnly(settlement), DateOnly(maturity)
	if !maturity.After(settlement) {
		return nil, fmt.Errorf("%w: maturity %s not after settlement %s",
			ErrInvalidCalculationInput, maturity.Format(time.DateOnly), settlement.Format(time.DateOnly))
	}

	var dates []time.Time
	step := 12 / frequency
	for n := 0; ; n++ {
		d := AddMonths(maturity, -n*step)
		if !d.After(settlement) {
			break
		}
		dates = append(dates, d)
	}

	coupon := face.Mul(couponRate).Div(decimal.NewFromInt(int64(frequency)))
	flows := make([]Cashflow, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		t, err := YearFraction(settlement, dates[i], Actual365)
		if err != nil {
			return nil, err
		}
		amount := coupon
		if i == 0 {
			amount = amount.Add(face)
		}
		flows = append(flows, Cashflow{Time: t, Amount: amount})
	}
	return flows, nil
}
