package detectors

import (
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SecurityIdentifierDetector flags pairs whose identifiers disagree.
type SecurityIdentifierDetector struct{}

var _ Detector = (*SecurityIdentifierDetector)(nil)

func NewSecurityIdentifierDetector() *SecurityIdentifierDetector {
	return &SecurityIdentifierDetector{}
}

func (d *SecurityIdentifierDetector) Type() domain.BreakType {
	return domain.BreakSecurityIdentifier
}

// Detect compares ISIN, CUSIP and SEDOL independently. Only identifiers present
// on both sides are compared. Impact is the amount at risk.
func (d *SecurityIdentifierDetector) Detect(s Subject, _ domain.ReferenceData) *domain.Exception {
	if !s.IsPair() {
		return nil
	}
	a, b := s.Match.A, s.Match.B

	var mismatches []domain.IdentifierMismatch
	var diffs []domain.FieldDiff
	for _, field := range domain.IdentifierFields {
		va, vb := strings.TrimSpace(a.Securities.Get(field)), strings.TrimSpace(b.Securities.Get(field))
		if va == "" || vb == "" || strings.EqualFold(va, vb) {
			continue
		}
		mismatches = append(mismatches, domain.IdentifierMismatch{Field: field, ValueA: va, ValueB: vb})
		diffs = append(diffs, domain.FieldDiff{Field: "securities." + string(field), Before: va, After: vb})
	}
	if len(mismatches) == 0 {
		return nil
	}

	exc := newException(domain.BreakSecurityIdentifier, s, domain.SecurityIdentifierDetail{
		MismatchType: mismatches[0].Field,
		Mismatches:   mismatches,
	})
	exc.Diffs = diffs
	exc.Impact = decimal.Max(a.AmountValue().Abs(), b.AmountValue().Abs())
	exc.Currency = a.Currency
	return exc
}
