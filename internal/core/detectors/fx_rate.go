package detectors

import (
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/finance"
	"github.com/shopspring/decimal"
)

// FXRateDetector checks recorded FX rates against the same-day reference rate,
// or against the counterparty's rate when no reference is configured.
type FXRateDetector struct {
	cfg Config
}

var _ Detector = (*FXRateDetector)(nil)

func NewFXRateDetector(cfg Config) *FXRateDetector {
	return &FXRateDetector{cfg: cfg}
}

func (d *FXRateDetector) Type() domain.BreakType {
	return domain.BreakFXRate
}

// Detect reports the first leg, A before B, whose rate is out of tolerance.
func (d *FXRateDetector) Detect(s Subject, ref domain.ReferenceData) *domain.Exception {
	legs := s.Legs()
	tol := finance.Tolerance{Kind: finance.ToleranceBps, Value: d.cfg.FXToleranceBps}

	for i, leg := range legs {
		if !hasFXRate(leg) {
			continue
		}
		reference, source, ok := referenceRate(leg, legs, i, ref)
		if !ok || finance.IsWithinTolerance(reference, *leg.FXRate, tol) {
			continue
		}

		notional := leg.NotionalValue()
		detail := domain.FXRateDetail{
			CurrencyPair:    currencyPair(leg),
			Rate:            *leg.FXRate,
			ReferenceRate:   reference,
			ReferenceSource: source,
			DeviationBps:    finance.DeviationBps(reference, *leg.FXRate).Round(2),
			ToleranceBps:    d.cfg.FXToleranceBps,
			Notional:        notional,
		}
		exc := newException(domain.BreakFXRate, s, detail)
		exc.Diffs = []domain.FieldDiff{{Field: "fx_rate", Before: leg.FXRate.String(), After: reference.String()}}
		exc.Impact = finance.FXGainLoss(notional, *leg.FXRate, reference)
		exc.Currency = strings.ToUpper(leg.BaseCurrency)
		return exc
	}
	return nil
}

func hasFXRate(t domain.Transaction) bool {
	return t.FXRate != nil && t.BaseCurrency != "" && !strings.EqualFold(t.BaseCurrency, t.Currency)
}

func currencyPair(t domain.Transaction) string {
	return strings.ToUpper(t.Currency) + "/" + strings.ToUpper(t.BaseCurrency)
}

// referenceRate prefers the configured same-day rate and falls back to the
// other leg's rate for the same currency pair.
func referenceRate(leg domain.Transaction, legs []domain.Transaction, self int, ref domain.ReferenceData) (decimal.Decimal, string, bool) {
	if on, ok := leg.PrimaryDate(); ok {
		if rate, ok := ref.FXRate(leg.Currency, leg.BaseCurrency, on); ok {
			return rate, domain.FXReferenceConfigured, true
		}
	}
	for j, other := range legs {
		if j == self || !hasFXRate(other) || currencyPair(other) != currencyPair(leg) {
			continue
		}
		return *other.FXRate, domain.FXReferenceCounterparty, true
	}
	return decimal.Zero, "", false
}
