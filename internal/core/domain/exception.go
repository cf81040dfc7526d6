package domain

import (
	"github.com/shopspring/decimal"
)

// BreakType classifies an Exception. The first five are detector breaks; the
// last two describe matching outcomes.
type BreakType string

const (
	BreakSecurityIdentifier BreakType = "security_identifier"
	BreakCoupon             BreakType = "fixed_income_coupon"
	BreakMarketPrice        BreakType = "market_price"
	BreakSettlementDate     BreakType = "settlement_date"
	BreakFXRate             BreakType = "fx_rate"
	BreakNoMatch            BreakType = "no_match_found"
	BreakLowConfidence      BreakType = "low_confidence_match"
)

// DetectorBreakTypes lists the detector break types in evaluation order.
var DetectorBreakTypes = []BreakType{
	BreakSecurityIdentifier,
	BreakCoupon,
	BreakMarketPrice,
	BreakSettlementDate,
	BreakFXRate,
}

// Severity is the classification outcome for an Exception.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (1) to critical (4).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// ExceptionStatus is owned by the review workflow. The engine only creates StatusOpen.
type ExceptionStatus string

const (
	StatusOpen     ExceptionStatus = "open"
	StatusInReview ExceptionStatus = "in_review"
	StatusResolved ExceptionStatus = "resolved"
	StatusClosed   ExceptionStatus = "closed"
)

// SubReasonCalculationError marks a break raised because a calculation failed.
const SubReasonCalculationError = "calculation_error"

// FieldDiff is a field-level before/after pair. Before is side A, After is side B
// (or the expected value for single-sided checks).
type FieldDiff struct {
	Field  string `json:"field" yaml:"field"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// Exception is a detected break or unresolved matching outcome.
type Exception struct {
	ID                string           `json:"id" yaml:"id"`
	MatchID           string           `json:"matchId,omitempty" yaml:"matchId,omitempty"`
	Type              BreakType        `json:"type" yaml:"type"`
	Severity          Severity         `json:"severity" yaml:"severity"`
	SubReason         string           `json:"subReason,omitempty" yaml:"subReason,omitempty"`
	Detail            Detail           `json:"detail" yaml:"detail"`
	Diffs             []FieldDiff      `json:"diffs" yaml:"diffs"`
	Impact            decimal.Decimal  `json:"impact" yaml:"impact"` // Signed, in Currency
	Currency          string           `json:"currency" yaml:"currency"`
	ReportingImpact   *decimal.Decimal `json:"reportingImpact,omitempty" yaml:"reportingImpact,omitempty"` // Impact in the reporting currency, when convertible
	ReportingCurrency string           `json:"reportingCurrency,omitempty" yaml:"reportingCurrency,omitempty"`
	Confidence        *float64         `json:"confidence,omitempty" yaml:"confidence,omitempty"` // Match confidence if derived from a near-match
	Status            ExceptionStatus  `json:"status" yaml:"status"`
	Transactions      []TransactionRef `json:"transactions" yaml:"transactions"`
	Annotation        string           `json:"annotation,omitempty" yaml:"annotation,omitempty"` // Free text from an external annotator, never read back
	BatchStamp        `yaml:",inline"`
}

// ExceptionContext is the read-only view handed to an external annotator.
type ExceptionContext struct {
	ExceptionID  string           `json:"exceptionId"`
	Type         BreakType        `json:"type"`
	Severity     Severity         `json:"severity"`
	SubReason    string           `json:"subReason,omitempty"`
	Diffs        []FieldDiff      `json:"diffs"`
	Impact       decimal.Decimal  `json:"impact"`
	Currency     string           `json:"currency"`
	Confidence   *float64         `json:"confidence,omitempty"`
	Detail       Detail           `json:"detail"`
	Transactions []TransactionRef `json:"transactions"`
}

// Context builds the annotator view. Slices and the confidence are copied so
// the annotator cannot reach back into the exception.
func (e Exception) Context() ExceptionContext {
	var confidence *float64
	if e.Confidence != nil {
		c := *e.Confidence
		confidence = &c
	}
	return ExceptionContext{
		ExceptionID:  e.ID,
		Type:         e.Type,
		Severity:     e.Severity,
		SubReason:    e.SubReason,
		Diffs:        append([]FieldDiff(nil), e.Diffs...),
		Impact:       e.Impact,
		Currency:     e.Currency,
		Confidence:   confidence,
		Detail:       e.Detail,
		Transactions: append([]TransactionRef(nil), e.Transactions...),
	}
}
