package finance

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// PriceAnomalyScore is the z-score of price against a rolling mean and standard
// deviation. A zero deviation yields 0 for the mean itself and an infinite score otherwise.
func PriceAnomalyScore(price, mean, stddev decimal.Decimal) float64 {
	diff := price.Sub(mean)
	if stddev.IsZero() {
		switch diff.Sign() {
		case 0:
			return 0
		case 1:
			return math.Inf(1)
		default:
			return math.Inf(-1)
		}
	}
	return diff.Div(stddev).InexactFloat64()
}

// RollingStats returns the mean and sample standard deviation of window.
// A single observation has zero deviation.
func RollingStats(window []decimal.Decimal) (mean, stddev decimal.Decimal, err error) {
	n := len(window)
	if n == 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: empty price window", ErrInvalidCalculationInput)
	}
	mean = decimal.Avg(window[0], window[1:]...)
	if n == 1 {
		return mean, decimal.Zero, nil
	}
	sumSq := decimal.Zero
	for _, p := range window {
		d := p.Sub(mean)
		sumSq = sumSq.Add(d.Mul(d))
	}
	variance := sumSq.Div(decimal.NewFromInt(int64(n - 1)))
	return mean, decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())), nil
}
