package detectors

import (
	"math"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/finance"
	"github.com/shopspring/decimal"
)

const yieldPlaces = 6

var defaultBondFace = decimal.NewFromInt(100)

// MarketPriceDetector compares prices across a pair and screens each price
// against the rolling reference window.
type MarketPriceDetector struct {
	cfg Config
}

var _ Detector = (*MarketPriceDetector)(nil)

func NewMarketPriceDetector(cfg Config) *MarketPriceDetector {
	return &MarketPriceDetector{cfg: cfg}
}

func (d *MarketPriceDetector) Type() domain.BreakType {
	return domain.BreakMarketPrice
}

func (d *MarketPriceDetector) Detect(s Subject, ref domain.ReferenceData) *domain.Exception {
	legs := s.Legs()
	primary := s.Primary()
	detail := domain.MarketPriceDetail{
		ToleranceBps:    d.toleranceFor(primary.SecurityType),
		ZScoreThreshold: d.cfg.PriceAnomalyZ,
	}
	detail.PriceA = legs[0].Price
	if len(legs) == 2 {
		detail.PriceB = legs[1].Price
	}
	if detail.PriceA == nil && detail.PriceB == nil {
		return nil
	}

	var diffs []domain.FieldDiff
	var impact decimal.Decimal
	if detail.PriceA != nil && detail.PriceB != nil {
		pa, pb := *detail.PriceA, *detail.PriceB
		detail.DeviationBps = finance.DeviationBps(pa, pb).Round(2)
		if !finance.IsWithinTolerance(pa, pb, finance.Tolerance{Kind: finance.ToleranceBps, Value: detail.ToleranceBps}) {
			detail.Reasons = append(detail.Reasons, domain.PriceReasonTolerance)
			diffs = append(diffs, domain.FieldDiff{Field: "price", Before: pa.String(), After: pb.String()})
		}
		impact = pb.Sub(pa).Mul(quantity(legs))
	}

	var mean decimal.Decimal
	if window, ok := ref.Prices(primary.Securities); ok && len(window) >= 2 {
		var stddev decimal.Decimal
		mean, stddev, _ = finance.RollingStats(window)
		if z, price, ok := worstZScore(legs, mean, stddev); ok && math.Abs(z) > d.cfg.PriceAnomalyZ {
			detail.Reasons = append(detail.Reasons, domain.PriceReasonAnomaly)
			if !math.IsInf(z, 0) {
				detail.ZScore = &z
			}
			if len(diffs) == 0 {
				diffs = append(diffs, domain.FieldDiff{Field: "price", Before: price.String(), After: mean.Round(6).String()})
			}
		} else if ok && !math.IsInf(z, 0) {
			detail.ZScore = &z
		}
	}

	impliedYields(legs, &detail)
	if len(detail.Reasons) == 0 {
		return nil
	}
	if detail.PriceB == nil && detail.PriceA != nil && !mean.IsZero() {
		impact = detail.PriceA.Sub(mean).Mul(quantity(legs))
	}

	exc := newException(domain.BreakMarketPrice, s, detail)
	exc.Diffs = diffs
	exc.Impact = impact
	exc.Currency = primary.Currency
	return exc
}

func (d *MarketPriceDetector) toleranceFor(securityType string) decimal.Decimal {
	if tol, ok := d.cfg.PriceToleranceByType[strings.ToLower(securityType)]; ok {
		return tol
	}
	return d.cfg.PriceToleranceBps
}

// impliedYields fills the yield of every priced bond leg. A solver failure is
// recorded on the detail and never raises a break by itself.
func impliedYields(legs []domain.Transaction, detail *domain.MarketPriceDetail) {
	for i, leg := range legs {
		y, ok, err := impliedYield(leg)
		if err != nil {
			if detail.CalculationError == "" {
				detail.CalculationError = err.Error()
			}
			continue
		}
		if !ok {
			continue
		}
		if i == 0 {
			detail.ImpliedYieldA = &y
		} else {
			detail.ImpliedYieldB = &y
		}
	}
}

// impliedYield reports ok=false for legs that are not priced bonds.
func impliedYield(t domain.Transaction) (decimal.Decimal, bool, error) {
	if t.Price == nil || t.Coupon == nil || t.Coupon.MaturityDate == nil {
		return decimal.Zero, false, nil
	}
	var settle time.Time
	switch {
	case t.SettlementDate != nil:
		settle = *t.SettlementDate
	case t.TradeDate != nil:
		settle = *t.TradeDate
	default:
		return decimal.Zero, false, nil
	}
	face := bondFace(t)
	cfs, err := finance.BondCashflows(face, t.Coupon.Rate, t.Coupon.PaymentsPerYear(), settle, *t.Coupon.MaturityDate)
	if err != nil {
		return decimal.Zero, false, err
	}
	y, err := finance.YieldToMaturity(*t.Price, face, cfs, t.Coupon.Rate.InexactFloat64())
	if err != nil {
		return decimal.Zero, false, err
	}
	return y.Round(yieldPlaces), true, nil
}

// bondFace is the face value per unit the price is quoted against: notional
// over quantity when both are recorded, else 100.
func bondFace(t domain.Transaction) decimal.Decimal {
	if t.Notional != nil && t.Quantity != nil && t.Notional.IsPositive() && t.Quantity.IsPositive() {
		return t.Notional.Div(*t.Quantity)
	}
	return defaultBondFace
}

// worstZScore returns the z-score with the largest magnitude among priced
// legs, with the price that produced it.
func worstZScore(legs []domain.Transaction, mean, stddev decimal.Decimal) (float64, decimal.Decimal, bool) {
	var (
		worst float64
		price decimal.Decimal
		found bool
	)
	for _, leg := range legs {
		if leg.Price == nil {
			continue
		}
		z := finance.PriceAnomalyScore(*leg.Price, mean, stddev)
		if !found || math.Abs(z) > math.Abs(worst) {
			worst, price, found = z, *leg.Price, true
		}
	}
	return worst, price, found
}

// quantity is the first recorded quantity, or one for a per-unit impact.
func quantity(legs []domain.Transaction) decimal.Decimal {
	for _, leg := range legs {
		if leg.Quantity != nil {
			return *leg.Quantity
		}
	}
	return decimal.NewFromInt(1)
}
