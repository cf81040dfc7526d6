package mapping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelMatch converts a domain Match to its row and the two consumed legs.
func ToModelMatch(d domain.Match) (models.Match, []models.MatchLeg, error) {
	m := models.Match{
		MatchID:        d.ID,
		BatchID:        d.BatchID,
		MatchType:      string(d.Type),
		Confidence:     d.Confidence,
		ReviewRequired: d.ReviewRequired,
		CreatedAt:      d.CreatedAt,
	}
	var err error
	if m.Fields, err = marshalList(d.Fields); err != nil {
		return models.Match{}, nil, fmt.Errorf("encoding match fields: %w", err)
	}
	if m.TieBreakTrail, err = marshalList(d.TieBreakTrail); err != nil {
		return models.Match{}, nil, fmt.Errorf("encoding tie-break trail: %w", err)
	}
	if m.TransactionA, err = json.Marshal(d.A); err != nil {
		return models.Match{}, nil, fmt.Errorf("encoding transaction A: %w", err)
	}
	if m.TransactionB, err = json.Marshal(d.B); err != nil {
		return models.Match{}, nil, fmt.Errorf("encoding transaction B: %w", err)
	}

	legs := make([]models.MatchLeg, 0, 2)
	for _, ref := range d.Refs() {
		legs = append(legs, models.MatchLeg{
			Side:       string(ref.Side),
			Source:     ref.Source,
			ExternalID: ref.ExternalID,
			MatchID:    d.ID,
		})
	}
	return m, legs, nil
}

// ToModelException converts a domain Exception to a row. seq is its position
// in the batch output.
func ToModelException(d domain.Exception, seq int) (models.Exception, error) {
	m := models.Exception{
		ExceptionID:       d.ID,
		BatchID:           d.BatchID,
		Seq:               seq,
		BreakType:         string(d.Type),
		Severity:          string(d.Severity),
		SubReason:         d.SubReason,
		Impact:            d.Impact,
		Currency:          d.Currency,
		ReportingCurrency: d.ReportingCurrency,
		Confidence:        d.Confidence,
		Status:            string(d.Status),
		Annotation:        d.Annotation,
		CreatedAt:         d.CreatedAt,
	}
	if d.MatchID != "" {
		matchID := d.MatchID
		m.MatchID = &matchID
	}
	if d.ReportingImpact != nil {
		m.ReportingImpact = decimal.NewNullDecimal(*d.ReportingImpact)
	}

	var err error
	if m.Detail, err = json.Marshal(d.Detail); err != nil {
		return models.Exception{}, fmt.Errorf("encoding exception detail: %w", err)
	}
	if m.Diffs, err = marshalList(d.Diffs); err != nil {
		return models.Exception{}, fmt.Errorf("encoding exception diffs: %w", err)
	}
	if m.Transactions, err = marshalList(d.Transactions); err != nil {
		return models.Exception{}, fmt.Errorf("encoding exception transactions: %w", err)
	}
	return m, nil
}

// ToDomainException converts a stored row back to a domain Exception.
func ToDomainException(m models.Exception) (domain.Exception, error) {
	d := domain.Exception{
		ID:                m.ExceptionID,
		Type:              domain.BreakType(m.BreakType),
		Severity:          domain.Severity(m.Severity),
		SubReason:         m.SubReason,
		Impact:            m.Impact,
		Currency:          m.Currency,
		ReportingCurrency: m.ReportingCurrency,
		Confidence:        m.Confidence,
		Status:            domain.ExceptionStatus(m.Status),
		Annotation:        m.Annotation,
		BatchStamp:        domain.BatchStamp{BatchID: m.BatchID, CreatedAt: m.CreatedAt},
	}
	if m.MatchID != nil {
		d.MatchID = *m.MatchID
	}
	if m.ReportingImpact.Valid {
		v := m.ReportingImpact.Decimal
		d.ReportingImpact = &v
	}

	detail, err := domain.UnmarshalDetail(d.Type, m.Detail)
	if err != nil {
		return domain.Exception{}, err
	}
	d.Detail = detail

	d.Diffs = []domain.FieldDiff{}
	if err := json.Unmarshal(m.Diffs, &d.Diffs); err != nil {
		return domain.Exception{}, fmt.Errorf("decoding exception diffs: %w", err)
	}
	if err := json.Unmarshal(m.Transactions, &d.Transactions); err != nil {
		return domain.Exception{}, fmt.Errorf("decoding exception transactions: %w", err)
	}
	return d, nil
}

// ToModelReferenceRate converts a domain ReferenceRate to a row with upper-case codes.
func ToModelReferenceRate(d domain.ReferenceRate) models.ReferenceRate {
	return models.ReferenceRate{
		FromCurrencyCode: normalizeCode(d.FromCurrency),
		ToCurrencyCode:   normalizeCode(d.ToCurrency),
		Rate:             d.Rate,
		DateEffective:    d.DateEffective,
	}
}

// ToDomainReferenceRate converts a stored row to a domain ReferenceRate
func ToDomainReferenceRate(m models.ReferenceRate) domain.ReferenceRate {
	return domain.ReferenceRate{
		FromCurrency:  m.FromCurrencyCode,
		ToCurrency:    m.ToCurrencyCode,
		Rate:          m.Rate,
		DateEffective: m.DateEffective,
	}
}

// marshalList encodes nil slices as [] so JSONB columns never hold null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
