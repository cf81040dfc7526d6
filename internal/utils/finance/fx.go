package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FXCrossRate derives the A/B rate from the prices of A and B in a common base currency.
func FXCrossRate(rateAInBase, rateBInBase decimal.Decimal) (decimal.Decimal, error) {
	if !rateAInBase.IsPositive() || !rateBInBase.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: cross rate legs must be positive", ErrInvalidCalculationInput)
	}
	return rateAInBase.Div(rateBInBase), nil
}

// FXForwardRate applies simple interest-rate parity:
// forward = spot * (1 + rDomestic*T) / (1 + rForeign*T).
func FXForwardRate(spot, rateDomestic, rateForeign, tenorYears decimal.Decimal) (decimal.Decimal, error) {
	if !spot.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: spot rate must be positive", ErrInvalidCalculationInput)
	}
	if tenorYears.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative tenor", ErrInvalidCalculationInput)
	}
	one := decimal.NewFromInt(1)
	denominator := one.Add(rateForeign.Mul(tenorYears))
	if !denominator.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: foreign discount factor not positive", ErrInvalidCalculationInput)
	}
	return spot.Mul(one.Add(rateDomestic.Mul(tenorYears))).Div(denominator), nil
}

// FXGainLoss is the signed revaluation of notional moving from fromRate to toRate.
func FXGainLoss(notional, fromRate, toRate decimal.Decimal) decimal.Decimal {
	return notional.Mul(toRate.Sub(fromRate))
}

// InvertRate returns 1/rate, or zero for a zero rate.
func InvertRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).Div(rate)
}
