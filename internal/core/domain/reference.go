package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceRate is a same-day FX rate supplied by configuration: one unit of
// FromCurrency costs Rate units of ToCurrency.
type ReferenceRate struct {
	FromCurrency  string          `json:"fromCurrency" yaml:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency" yaml:"toCurrency"`
	Rate          decimal.Decimal `json:"rate" yaml:"rate"`
	DateEffective time.Time       `json:"dateEffective" yaml:"dateEffective"`
}

// ReferenceData is the read-only market data a batch is checked against.
type ReferenceData struct {
	FXRates      []ReferenceRate              `json:"fxRates,omitempty" yaml:"fxRates,omitempty"`
	PriceHistory map[string][]decimal.Decimal `json:"priceHistory,omitempty" yaml:"priceHistory,omitempty"` // Rolling window keyed by ISIN, CUSIP or SEDOL
}

// FXRate finds the rate from -> to effective on the given date. The inverse
// pair is used when only it is present; identical currencies yield 1.
func (r ReferenceData) FXRate(from, to string, on time.Time) (decimal.Decimal, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if rate, ok := r.findRate(from, to, on); ok {
		return rate, true
	}
	if rate, ok := r.findRate(to, from, on); ok && !rate.IsZero() {
		return decimal.NewFromInt(1).Div(rate), true
	}
	return decimal.Zero, false
}

// LatestFXRate is FXRate without a date constraint, preferring the most recent rate.
func (r ReferenceData) LatestFXRate(from, to string) (decimal.Decimal, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if rate, ok := r.latestRate(from, to); ok {
		return rate, true
	}
	if rate, ok := r.latestRate(to, from); ok && !rate.IsZero() {
		return decimal.NewFromInt(1).Div(rate), true
	}
	return decimal.Zero, false
}

func (r ReferenceData) findRate(from, to string, on time.Time) (decimal.Decimal, bool) {
	y, m, d := on.Date()
	for _, rate := range r.FXRates {
		ry, rm, rd := rate.DateEffective.Date()
		if ry == y && rm == m && rd == d &&
			strings.EqualFold(rate.FromCurrency, from) && strings.EqualFold(rate.ToCurrency, to) {
			return rate.Rate, true
		}
	}
	return decimal.Zero, false
}

func (r ReferenceData) latestRate(from, to string) (decimal.Decimal, bool) {
	var (
		best  ReferenceRate
		found bool
	)
	for _, rate := range r.FXRates {
		if !strings.EqualFold(rate.FromCurrency, from) || !strings.EqualFold(rate.ToCurrency, to) {
			continue
		}
		if !found || rate.DateEffective.After(best.DateEffective) {
			best, found = rate, true
		}
	}
	return best.Rate, found
}

// Prices returns the rolling price window for the first identifier of ids
// that has one, in ISIN, CUSIP, SEDOL order.
func (r ReferenceData) Prices(ids SecurityIDs) ([]decimal.Decimal, bool) {
	for _, field := range IdentifierFields {
		id := ids.Get(field)
		if id == "" {
			continue
		}
		if window, ok := r.PriceHistory[id]; ok && len(window) > 0 {
			return window, true
		}
	}
	return nil, false
}
