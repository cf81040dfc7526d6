package matching

import (
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/finance"
	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// scorePlaces is the precision scores are rounded to, so that ties compare exactly.
const scorePlaces = 6

var (
	one       = decimal.NewFromInt(1)
	neutral   = decimal.RequireFromString("0.5")
	amountEps = decimal.New(1, -9)
)

// Components are the individual similarity terms of a candidate pair.
type Components struct {
	Amount          decimal.Decimal
	Currency        decimal.Decimal
	Identifier      decimal.Decimal
	IdentifierField domain.IdentifierField // Empty when the identifier term was neutral
	Date            decimal.Decimal
}

// AsMap renders the components for reporting.
func (c Components) AsMap() map[string]float64 {
	return map[string]float64{
		"amount":     c.Amount.InexactFloat64(),
		"currency":   c.Currency.InexactFloat64(),
		"identifier": c.Identifier.InexactFloat64(),
		"date":       c.Date.InexactFloat64(),
	}
}

// AmountSimilarity is 1 - min(1, |a-b| / max(|a|, |b|, eps)).
func AmountSimilarity(a, b decimal.Decimal) decimal.Decimal {
	denominator := decimal.Max(a.Abs(), b.Abs(), amountEps)
	ratio := a.Sub(b).Abs().Div(denominator)
	return one.Sub(decimal.Min(one, ratio))
}

// CurrencySimilarity is 1 for equal ISO codes and 0 otherwise.
func CurrencySimilarity(a, b string) decimal.Decimal {
	if strings.EqualFold(a, b) {
		return one
	}
	return decimal.Zero
}

// EditSimilarity is 1 - levenshtein(a, b) / max(len(a), len(b)).
func EditSimilarity(a, b string) decimal.Decimal {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return one
	}
	dist := levenshtein.ComputeDistance(a, b)
	return one.Sub(decimal.NewFromInt(int64(dist)).Div(decimal.NewFromInt(int64(longest))))
}

// IdentifierSimilarity compares the best aligned identifier pair: ISIN with
// ISIN, else CUSIP with CUSIP, else SEDOL with SEDOL. Without an aligned pair
// the term is neutral (0.5).
func IdentifierSimilarity(a, b domain.SecurityIDs) (decimal.Decimal, domain.IdentifierField) {
	for _, field := range domain.IdentifierFields {
		va, vb := a.Get(field), b.Get(field)
		if va != "" && vb != "" {
			return EditSimilarity(va, vb), field
		}
	}
	return neutral, ""
}

// DateProximity is max(0, 1 - |days| / window) over trade dates, falling back to
// settlement dates when a trade date is missing. Pairs without a comparable date score 0.
func DateProximity(a, b domain.Transaction, windowDays int) decimal.Decimal {
	var days int
	switch {
	case a.TradeDate != nil && b.TradeDate != nil:
		days = finance.ActualDays(*a.TradeDate, *b.TradeDate)
	case a.SettlementDate != nil && b.SettlementDate != nil:
		days = finance.ActualDays(*a.SettlementDate, *b.SettlementDate)
	default:
		return decimal.Zero
	}
	if days < 0 {
		days = -days
	}
	if windowDays <= 0 {
		if days == 0 {
			return one
		}
		return decimal.Zero
	}
	v := one.Sub(decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(windowDays))))
	return decimal.Max(decimal.Zero, v)
}

// Score computes the weighted similarity of a and b, rounded to six places.
func Score(a, b domain.Transaction, cfg Config) (decimal.Decimal, Components) {
	c := Components{
		Amount:   AmountSimilarity(a.AmountValue(), b.AmountValue()),
		Currency: CurrencySimilarity(a.Currency, b.Currency),
		Date:     DateProximity(a, b, cfg.FuzzyDateWindowDays),
	}
	c.Identifier, c.IdentifierField = IdentifierSimilarity(a.Securities, b.Securities)

	wAmount := decimal.NewFromFloat(cfg.Weights.Amount)
	wCurrency := decimal.NewFromFloat(cfg.Weights.Currency)
	wIdentifier := decimal.NewFromFloat(cfg.Weights.Identifier)
	wDate := decimal.NewFromFloat(cfg.Weights.Date)
	total := wAmount.Add(wCurrency).Add(wIdentifier).Add(wDate)
	if total.IsZero() {
		return decimal.Zero, c
	}
	sum := c.Amount.Mul(wAmount).
		Add(c.Currency.Mul(wCurrency)).
		Add(c.Identifier.Mul(wIdentifier)).
		Add(c.Date.Mul(wDate))
	return sum.Div(total).Round(scorePlaces), c
}
