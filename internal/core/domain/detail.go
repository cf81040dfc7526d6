package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Detail is the structured payload of an Exception. It is a closed set: each
// BreakType has exactly one payload type and the interface cannot be
// implemented outside this package.
type Detail interface {
	BreakType() BreakType
	isDetail()
}

// IdentifierMismatch records one identifier that differs across a pair.
type IdentifierMismatch struct {
	Field  IdentifierField `json:"field" yaml:"field"`
	ValueA string          `json:"valueA" yaml:"valueA"`
	ValueB string          `json:"valueB" yaml:"valueB"`
}

// SecurityIdentifierDetail lists every differing identifier. MismatchType is
// the first one in ISIN, CUSIP, SEDOL order.
type SecurityIdentifierDetail struct {
	MismatchType IdentifierField      `json:"mismatchType" yaml:"mismatchType"`
	Mismatches   []IdentifierMismatch `json:"mismatches" yaml:"mismatches"`
}

// CouponDetail compares recorded coupon amounts against each other and against
// the accrued interest implied by the coupon terms.
type CouponDetail struct {
	DayCount         string           `json:"dayCount" yaml:"dayCount"`
	Frequency        int              `json:"frequency" yaml:"frequency"`
	ExpectedAccrued  *decimal.Decimal `json:"expectedAccrued,omitempty" yaml:"expectedAccrued,omitempty"`
	RecordedA        *decimal.Decimal `json:"recordedA,omitempty" yaml:"recordedA,omitempty"`
	RecordedB        *decimal.Decimal `json:"recordedB,omitempty" yaml:"recordedB,omitempty"`
	Difference       decimal.Decimal  `json:"difference" yaml:"difference"`
	Tolerance        decimal.Decimal  `json:"tolerance" yaml:"tolerance"`
	CalculationError string           `json:"calculationError,omitempty" yaml:"calculationError,omitempty"`
}

// Market price break reasons.
const (
	PriceReasonTolerance = "outside_tolerance"
	PriceReasonAnomaly   = "anomaly"
)

// MarketPriceDetail records the price comparison and, for bonds, the implied yields.
type MarketPriceDetail struct {
	Reasons          []string         `json:"reasons" yaml:"reasons"`
	PriceA           *decimal.Decimal `json:"priceA,omitempty" yaml:"priceA,omitempty"`
	PriceB           *decimal.Decimal `json:"priceB,omitempty" yaml:"priceB,omitempty"`
	DeviationBps     decimal.Decimal  `json:"deviationBps" yaml:"deviationBps"`
	ToleranceBps     decimal.Decimal  `json:"toleranceBps" yaml:"toleranceBps"`
	ZScore           *float64         `json:"zScore,omitempty" yaml:"zScore,omitempty"`
	ZScoreThreshold  float64          `json:"zScoreThreshold" yaml:"zScoreThreshold"`
	ImpliedYieldA    *decimal.Decimal `json:"impliedYieldA,omitempty" yaml:"impliedYieldA,omitempty"`
	ImpliedYieldB    *decimal.Decimal `json:"impliedYieldB,omitempty" yaml:"impliedYieldB,omitempty"`
	CalculationError string           `json:"calculationError,omitempty" yaml:"calculationError,omitempty"`
}

// SettlementDateDetail records expected vs actual settlement cycles.
type SettlementDateDetail struct {
	AssetClass        string     `json:"assetClass,omitempty" yaml:"assetClass,omitempty"`
	ExpectedCycleDays int        `json:"expectedCycleDays" yaml:"expectedCycleDays"`
	BusinessDays      bool       `json:"businessDays" yaml:"businessDays"`
	ActualCycleA      *int       `json:"actualCycleA,omitempty" yaml:"actualCycleA,omitempty"`
	ActualCycleB      *int       `json:"actualCycleB,omitempty" yaml:"actualCycleB,omitempty"`
	TradeDateA        *time.Time `json:"tradeDateA,omitempty" yaml:"tradeDateA,omitempty"`
	TradeDateB        *time.Time `json:"tradeDateB,omitempty" yaml:"tradeDateB,omitempty"`
	SettlementDateA   *time.Time `json:"settlementDateA,omitempty" yaml:"settlementDateA,omitempty"`
	SettlementDateB   *time.Time `json:"settlementDateB,omitempty" yaml:"settlementDateB,omitempty"`
}

// FX reference sources.
const (
	FXReferenceConfigured   = "reference"
	FXReferenceCounterparty = "counterparty"
)

// FXRateDetail records the checked rate against its reference.
type FXRateDetail struct {
	CurrencyPair    string          `json:"currencyPair" yaml:"currencyPair"`
	Rate            decimal.Decimal `json:"rate" yaml:"rate"`
	ReferenceRate   decimal.Decimal `json:"referenceRate" yaml:"referenceRate"`
	ReferenceSource string          `json:"referenceSource" yaml:"referenceSource"`
	DeviationBps    decimal.Decimal `json:"deviationBps" yaml:"deviationBps"`
	ToleranceBps    decimal.Decimal `json:"toleranceBps" yaml:"toleranceBps"`
	Notional        decimal.Decimal `json:"notional" yaml:"notional"`
}

// NoMatchDetail explains why a transaction stayed unmatched.
type NoMatchDetail struct {
	Side          Side     `json:"side" yaml:"side"`
	BestCandidate string   `json:"bestCandidate,omitempty" yaml:"bestCandidate,omitempty"`
	BestScore     *float64 `json:"bestScore,omitempty" yaml:"bestScore,omitempty"`
	ReviewFloor   float64  `json:"reviewFloor" yaml:"reviewFloor"`
}

// LowConfidenceDetail flags a fuzzy match that needs human review.
type LowConfidenceDetail struct {
	Score           float64            `json:"score" yaml:"score"`
	AutoAcceptFloor float64            `json:"autoAcceptFloor" yaml:"autoAcceptFloor"`
	ReviewFloor     float64            `json:"reviewFloor" yaml:"reviewFloor"`
	ComponentScores map[string]float64 `json:"componentScores" yaml:"componentScores"`
}

func (SecurityIdentifierDetail) BreakType() BreakType { return BreakSecurityIdentifier }
func (CouponDetail) BreakType() BreakType             { return BreakCoupon }
func (MarketPriceDetail) BreakType() BreakType        { return BreakMarketPrice }
func (SettlementDateDetail) BreakType() BreakType     { return BreakSettlementDate }
func (FXRateDetail) BreakType() BreakType             { return BreakFXRate }
func (NoMatchDetail) BreakType() BreakType            { return BreakNoMatch }
func (LowConfidenceDetail) BreakType() BreakType      { return BreakLowConfidence }

func (SecurityIdentifierDetail) isDetail() {}
func (CouponDetail) isDetail()             {}
func (MarketPriceDetail) isDetail()        {}
func (SettlementDateDetail) isDetail()     {}
func (FXRateDetail) isDetail()             {}
func (NoMatchDetail) isDetail()            {}
func (LowConfidenceDetail) isDetail()      {}

// UnmarshalDetail decodes a stored payload into the variant for t.
func UnmarshalDetail(t BreakType, raw []byte) (Detail, error) {
	var (
		detail Detail
		err    error
	)
	switch t {
	case BreakSecurityIdentifier:
		detail, err = decodeDetail[SecurityIdentifierDetail](raw)
	case BreakCoupon:
		detail, err = decodeDetail[CouponDetail](raw)
	case BreakMarketPrice:
		detail, err = decodeDetail[MarketPriceDetail](raw)
	case BreakSettlementDate:
		detail, err = decodeDetail[SettlementDateDetail](raw)
	case BreakFXRate:
		detail, err = decodeDetail[FXRateDetail](raw)
	case BreakNoMatch:
		detail, err = decodeDetail[NoMatchDetail](raw)
	case BreakLowConfidence:
		detail, err = decodeDetail[LowConfidenceDetail](raw)
	default:
		return nil, fmt.Errorf("%w: unknown break type %q", apperrors.ErrValidation, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s detail: %w", t, err)
	}
	return detail, nil
}

func decodeDetail[T Detail](raw []byte) (Detail, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
