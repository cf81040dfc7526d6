package detectors

import (
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/finance"
	"github.com/shopspring/decimal"
)

// SettlementDateDetector checks the trade-to-settlement cycle of each leg and,
// for pairs, that both sides agree on the dates.
type SettlementDateDetector struct {
	cfg Config
}

var _ Detector = (*SettlementDateDetector)(nil)

func NewSettlementDateDetector(cfg Config) *SettlementDateDetector {
	return &SettlementDateDetector{cfg: cfg}
}

func (d *SettlementDateDetector) Type() domain.BreakType {
	return domain.BreakSettlementDate
}

func (d *SettlementDateDetector) Detect(s Subject, _ domain.ReferenceData) *domain.Exception {
	legs := s.Legs()
	primary := s.Primary()
	expected := d.expectedCycle(primary.AssetClass)
	detail := domain.SettlementDateDetail{
		AssetClass:        primary.AssetClass,
		ExpectedCycleDays: expected,
		BusinessDays:      !d.cfg.SettlementCalendarDays,
		TradeDateA:        legs[0].TradeDate,
		SettlementDateA:   legs[0].SettlementDate,
	}
	if len(legs) == 2 {
		detail.TradeDateB = legs[1].TradeDate
		detail.SettlementDateB = legs[1].SettlementDate
	}

	var diffs []domain.FieldDiff
	for i, leg := range legs {
		cycle, ok := d.actualCycle(leg)
		if !ok {
			continue
		}
		if i == 0 {
			detail.ActualCycleA = &cycle
		} else {
			detail.ActualCycleB = &cycle
		}
		if cycle != expected {
			field := "settlement_date"
			if len(legs) == 2 {
				field = "settlement_date_" + strings.ToLower(string(s.Refs()[i].Side))
			}
			diffs = append(diffs, domain.FieldDiff{
				Field:  field,
				Before: formatDate(leg.SettlementDate),
				After:  d.expectedSettlement(*leg.TradeDate, expected).Format(time.DateOnly),
			})
		}
	}

	if len(legs) == 2 {
		if !sameDate(legs[0].TradeDate, legs[1].TradeDate) {
			diffs = append(diffs, domain.FieldDiff{Field: "trade_date", Before: formatDate(legs[0].TradeDate), After: formatDate(legs[1].TradeDate)})
		}
		if !sameDate(legs[0].SettlementDate, legs[1].SettlementDate) {
			diffs = append(diffs, domain.FieldDiff{Field: "settlement_date", Before: formatDate(legs[0].SettlementDate), After: formatDate(legs[1].SettlementDate)})
		}
	}

	offCycle := (detail.ActualCycleA != nil && *detail.ActualCycleA != expected) ||
		(detail.ActualCycleB != nil && *detail.ActualCycleB != expected)
	if !offCycle && len(diffs) == 0 {
		return nil
	}

	exc := newException(domain.BreakSettlementDate, s, detail)
	exc.Diffs = diffs
	exc.Impact = amountAtRisk(legs)
	exc.Currency = primary.Currency
	return exc
}

func (d *SettlementDateDetector) expectedCycle(assetClass string) int {
	if cycle, ok := d.cfg.SettlementCycles[strings.ToLower(assetClass)]; ok {
		return cycle
	}
	return d.cfg.DefaultSettlementCycle
}

func (d *SettlementDateDetector) actualCycle(t domain.Transaction) (int, bool) {
	if t.TradeDate == nil || t.SettlementDate == nil {
		return 0, false
	}
	if d.cfg.SettlementCalendarDays {
		return finance.ActualDays(*t.TradeDate, *t.SettlementDate), true
	}
	return finance.BusinessDaysBetween(*t.TradeDate, *t.SettlementDate), true
}

func (d *SettlementDateDetector) expectedSettlement(trade time.Time, cycle int) time.Time {
	if d.cfg.SettlementCalendarDays {
		return finance.DateOnly(trade).AddDate(0, 0, cycle)
	}
	return finance.AddBusinessDays(trade, cycle)
}

func amountAtRisk(legs []domain.Transaction) decimal.Decimal {
	risk := decimal.Zero
	for _, leg := range legs {
		risk = decimal.Max(risk, leg.AmountValue().Abs())
	}
	return risk
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return finance.DateOnly(*a).Equal(finance.DateOnly(*b))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
