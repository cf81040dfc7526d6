package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccruedInterest returns the coupon interest earned on principal from lastCoupon
// up to settlement. Actual/Actual uses the ICMA period form
// rate/frequency * accrued days / days in the coupon period; every other
// convention uses principal * rate * year fraction.
func AccruedInterest(principal, couponRate decimal.Decimal, lastCoupon, settlement time.Time, conv DayCountConvention, frequency int) (decimal.Decimal, error) {
	if !ValidFrequency(frequency) {
		return decimal.Zero, fmt.Errorf("%w: coupon frequency %d not in {1,2,4,12}", ErrInvalidCalculationInput, frequency)
	}
	if couponRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative coupon rate %s", ErrInvalidCalculationInput, couponRate)
	}
	lastCoupon, settlement = DateOnly(lastCoupon), DateOnly(settlement)
	if settlement.Before(lastCoupon) {
		return decimal.Zero, fmt.Errorf("%w: settlement %s before last coupon %s",
			ErrInvalidCalculationInput, settlement.Format(time.DateOnly), lastCoupon.Format(time.DateOnly))
	}

	if conv == ActualActual {
		next := NextCouponDate(lastCoupon, frequency)
		periodDays := ActualDays(lastCoupon, next)
		accruedDays := ActualDays(lastCoupon, settlement)
		perPeriod := principal.Mul(couponRate).Div(decimal.NewFromInt(int64(frequency)))
		return perPeriod.Mul(decimal.NewFromInt(int64(accruedDays))).Div(decimal.NewFromInt(int64(periodDays))), nil
	}

	yf, err := YearFraction(lastCoupon, settlement, conv)
	if err != nil {
		return decimal.Zero, err
	}
	return principal.Mul(couponRate).Mul(yf), nil
}

// NextCouponDate is the coupon date one period after last.
func NextCouponDate(last time.Time, frequency int) time.Time {
	return AddMonths(last, 12/frequency)
}

// ValidFrequency reports whether frequency is an annual, semi-annual, quarterly
// or monthly coupon schedule.
func ValidFrequency(frequency int) bool {
	switch frequency {
	case 1, 2, 4, 12:
		return true
	}
	return false
}
