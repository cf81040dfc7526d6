package detectors

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/finance"
	"github.com/shopspring/decimal"
)

// CouponDetector checks recorded coupon amounts against each other and against
// the accrued interest implied by the coupon terms.
type CouponDetector struct {
	cfg Config
}

var _ Detector = (*CouponDetector)(nil)

func NewCouponDetector(cfg Config) *CouponDetector {
	return &CouponDetector{cfg: cfg}
}

func (d *CouponDetector) Type() domain.BreakType {
	return domain.BreakCoupon
}

func (d *CouponDetector) Detect(s Subject, _ domain.ReferenceData) *domain.Exception {
	legs := s.Legs()
	terms, anchor, ok := couponTerms(legs)
	if !ok {
		return nil
	}

	detail := domain.CouponDetail{
		DayCount:  terms.DayCount,
		Frequency: terms.PaymentsPerYear(),
		Tolerance: d.tolerance(anchor),
	}
	recorded := make([]decimal.Decimal, len(legs))
	for i, leg := range legs {
		recorded[i] = recordedCoupon(leg)
	}
	detail.RecordedA = decimalPtr(recorded[0])
	if len(legs) == 2 {
		detail.RecordedB = decimalPtr(recorded[1])
	}

	expected, calcErr := expectedAccrued(anchor, terms)
	if calcErr != nil {
		detail.CalculationError = calcErr.Error()
	} else if expected != nil {
		rounded := expected.Round(2)
		detail.ExpectedAccrued = &rounded
	}

	var (
		impact decimal.Decimal
		diffs  []domain.FieldDiff
		broken bool
	)
	switch {
	case len(legs) == 2 && !finance.IsWithinTolerance(recorded[0], recorded[1], finance.Absolute(detail.Tolerance)):
		impact = recorded[1].Sub(recorded[0])
		diffs = append(diffs, domain.FieldDiff{Field: "coupon.amount", Before: recorded[0].String(), After: recorded[1].String()})
		broken = true
	case detail.ExpectedAccrued != nil && !finance.IsWithinTolerance(recorded[0], *detail.ExpectedAccrued, finance.Absolute(detail.Tolerance)):
		impact = recorded[0].Sub(*detail.ExpectedAccrued)
		diffs = append(diffs, domain.FieldDiff{Field: "coupon.expected_accrued", Before: recorded[0].String(), After: detail.ExpectedAccrued.String()})
		broken = true
	}
	if !broken && calcErr == nil {
		return nil
	}
	detail.Difference = impact

	exc := newException(domain.BreakCoupon, s, detail)
	exc.Diffs = diffs
	exc.Impact = impact
	exc.Currency = anchor.Currency
	if calcErr != nil {
		exc.SubReason = domain.SubReasonCalculationError
		exc.Confidence = zeroConfidence()
	}
	return exc
}

// tolerance is max(absolute floor, relative share of notional).
func (d *CouponDetector) tolerance(t domain.Transaction) decimal.Decimal {
	rel := t.NotionalValue().Abs().Mul(d.cfg.CouponRelTolerance)
	return decimal.Max(d.cfg.CouponAbsTolerance, rel)
}

// couponTerms returns the coupon of the first leg that has one, with that leg.
func couponTerms(legs []domain.Transaction) (domain.Coupon, domain.Transaction, bool) {
	for _, leg := range legs {
		if leg.Coupon != nil {
			return *leg.Coupon, leg, true
		}
	}
	return domain.Coupon{}, domain.Transaction{}, false
}

func recordedCoupon(t domain.Transaction) decimal.Decimal {
	if t.Coupon != nil && t.Coupon.Amount != nil {
		return *t.Coupon.Amount
	}
	return t.AmountValue()
}

// expectedAccrued returns nil without error when the terms are too sparse to
// compute anything. Unusable frequency or day-count terms are always an error.
func expectedAccrued(t domain.Transaction, c domain.Coupon) (*decimal.Decimal, error) {
	conv, err := couponConvention(c)
	if err != nil {
		return nil, err
	}
	settlement := accrualEnd(t, c)
	if t.Notional == nil || c.LastPaymentDate == nil || settlement == nil {
		return nil, nil
	}
	accrued, err := finance.AccruedInterest(*t.Notional, c.Rate, *c.LastPaymentDate, *settlement, conv, c.PaymentsPerYear())
	if err != nil {
		return nil, err
	}
	return &accrued, nil
}

func couponConvention(c domain.Coupon) (finance.DayCountConvention, error) {
	if !finance.ValidFrequency(c.PaymentsPerYear()) {
		return "", fmt.Errorf("%w: coupon frequency %d not in {1,2,4,12}", finance.ErrInvalidCalculationInput, c.Frequency)
	}
	if strings.TrimSpace(c.DayCount) == "" {
		return "", fmt.Errorf("%w: coupon has no day-count convention", finance.ErrInvalidCalculationInput)
	}
	return finance.ParseDayCountConvention(c.DayCount)
}

func accrualEnd(t domain.Transaction, c domain.Coupon) *time.Time {
	if t.SettlementDate != nil {
		return t.SettlementDate
	}
	return c.PaymentDate
}
