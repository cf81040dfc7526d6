// Package detectors implements the five independent break checks that run
// over matched pairs and unmatched transactions.
package detectors

import (
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Config holds every detector tolerance.
type Config struct {
	CouponAbsTolerance     decimal.Decimal            `json:"couponAbsTolerance" yaml:"couponAbsTolerance" validate:"gte=0"`
	CouponRelTolerance     decimal.Decimal            `json:"couponRelTolerance" yaml:"couponRelTolerance" validate:"gte=0"` // Fraction of notional, 0.0001 = 0.01%
	PriceToleranceBps      decimal.Decimal            `json:"priceToleranceBps" yaml:"priceToleranceBps" validate:"gte=0"`
	PriceToleranceByType   map[string]decimal.Decimal `json:"priceToleranceByType" yaml:"priceToleranceByType" validate:"dive,gte=0"`
	PriceAnomalyZ          float64                    `json:"priceAnomalyZ" yaml:"priceAnomalyZ" validate:"gt=0"`
	SettlementCycles       map[string]int             `json:"settlementCycles" yaml:"settlementCycles" validate:"dive,gte=0"` // Keyed by lower-case asset class
	DefaultSettlementCycle int                        `json:"defaultSettlementCycle" yaml:"defaultSettlementCycle" validate:"gte=0"`
	SettlementCalendarDays bool                       `json:"settlementCalendarDays" yaml:"settlementCalendarDays"` // Count calendar instead of business days
	FXToleranceBps         decimal.Decimal            `json:"fxToleranceBps" yaml:"fxToleranceBps" validate:"gte=0"`
	ScreenUnmatched        bool                       `json:"screenUnmatched" yaml:"screenUnmatched"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		CouponAbsTolerance:     decimal.RequireFromString("0.01"),
		CouponRelTolerance:     decimal.RequireFromString("0.0001"),
		PriceToleranceBps:      decimal.NewFromInt(5),
		PriceToleranceByType:   map[string]decimal.Decimal{},
		PriceAnomalyZ:          3,
		SettlementCycles:       map[string]int{"equity": 2, "fixed_income": 2, "fx": 2, "government_bond": 1},
		DefaultSettlementCycle: 2,
		FXToleranceBps:         decimal.NewFromInt(10),
		ScreenUnmatched:        true,
	}
}

// Subject is what a detector inspects: a matched pair or one unmatched transaction.
type Subject struct {
	Match  *domain.Match
	Single *domain.Transaction
	Side   domain.Side // Side of Single
}

// PairSubject wraps a match.
func PairSubject(m domain.Match) Subject {
	return Subject{Match: &m}
}

// SingleSubject wraps an unmatched transaction.
func SingleSubject(t domain.Transaction, side domain.Side) Subject {
	return Subject{Single: &t, Side: side}
}

// IsPair reports whether the subject is a matched pair.
func (s Subject) IsPair() bool {
	return s.Match != nil
}

// Legs returns the transactions under inspection, A first for pairs.
func (s Subject) Legs() []domain.Transaction {
	if s.IsPair() {
		return []domain.Transaction{s.Match.A, s.Match.B}
	}
	return []domain.Transaction{*s.Single}
}

// Refs returns references to the legs.
func (s Subject) Refs() []domain.TransactionRef {
	if s.IsPair() {
		return s.Match.Refs()
	}
	return []domain.TransactionRef{s.Single.Ref(s.Side)}
}

// Primary is the A leg of a pair or the single transaction.
func (s Subject) Primary() domain.Transaction {
	if s.IsPair() {
		return s.Match.A
	}
	return *s.Single
}

// Detector checks a subject for one kind of break. Detect returns nil when
// nothing is wrong. The returned Exception carries type, detail, diffs, impact
// and references; identity, severity and stamps are filled by the caller.
type Detector interface {
	Type() domain.BreakType
	Detect(s Subject, ref domain.ReferenceData) *domain.Exception
}

// All returns the five detectors in evaluation order.
func All(cfg Config) []Detector {
	return []Detector{
		NewSecurityIdentifierDetector(),
		NewCouponDetector(cfg),
		NewMarketPriceDetector(cfg),
		NewSettlementDateDetector(cfg),
		NewFXRateDetector(cfg),
	}
}

func newException(t domain.BreakType, s Subject, detail domain.Detail) *domain.Exception {
	return &domain.Exception{
		Type:         t,
		Detail:       detail,
		Transactions: s.Refs(),
	}
}

func zeroConfidence() *float64 {
	z := 0.0
	return &z
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
