package mapping_test

import (
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/mapping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionRowKeepsDetailVariant(t *testing.T) {
	created := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)
	reporting := decimal.RequireFromString("110")
	confidence := 0.72
	exc := domain.Exception{
		ID:       "exc-1",
		MatchID:  "match-1",
		Type:     domain.BreakFXRate,
		Severity: domain.SeverityMedium,
		Detail: domain.FXRateDetail{
			CurrencyPair:    "EUR/USD",
			Rate:            decimal.RequireFromString("1.08"),
			ReferenceRate:   decimal.RequireFromString("1.10"),
			ReferenceSource: domain.FXReferenceConfigured,
			DeviationBps:    decimal.RequireFromString("181.82"),
			ToleranceBps:    decimal.NewFromInt(10),
			Notional:        decimal.NewFromInt(1000),
		},
		Diffs:             []domain.FieldDiff{{Field: "fx_rate", Before: "1.08", After: "1.10"}},
		Impact:            decimal.RequireFromString("-20"),
		Currency:          "USD",
		ReportingImpact:   &reporting,
		ReportingCurrency: "USD",
		Confidence:        &confidence,
		Status:            domain.StatusOpen,
		Transactions:      []domain.TransactionRef{{Side: domain.SideA, Source: "ledger", ExternalID: "T-FX"}},
		BatchStamp:        domain.BatchStamp{BatchID: "batch-1", CreatedAt: created},
	}

	row, err := mapping.ToModelException(exc, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, row.Seq)
	require.NotNil(t, row.MatchID)
	assert.Equal(t, "match-1", *row.MatchID)
	assert.True(t, row.ReportingImpact.Valid)

	back, err := mapping.ToDomainException(row)
	require.NoError(t, err)
	detail, ok := back.Detail.(domain.FXRateDetail)
	require.True(t, ok, "detail decodes into its own variant")
	assert.Equal(t, "EUR/USD", detail.CurrencyPair)
	assert.True(t, detail.ReferenceRate.Equal(decimal.RequireFromString("1.10")))
	assert.Equal(t, exc.Diffs, back.Diffs)
	assert.Equal(t, exc.Transactions, back.Transactions)
	assert.True(t, back.ReportingImpact.Equal(reporting))
	assert.Equal(t, "batch-1", back.BatchID)
}

func TestExceptionRowWithoutMatch(t *testing.T) {
	exc := domain.Exception{
		ID:     "exc-2",
		Type:   domain.BreakNoMatch,
		Detail: domain.NoMatchDetail{Side: domain.SideB, ReviewFloor: 0.5},
		Status: domain.StatusOpen,
	}
	row, err := mapping.ToModelException(exc, 0)
	require.NoError(t, err)
	assert.Nil(t, row.MatchID)
	assert.False(t, row.ReportingImpact.Valid)
	assert.JSONEq(t, `[]`, string(row.Diffs))

	back, err := mapping.ToDomainException(row)
	require.NoError(t, err)
	assert.Empty(t, back.MatchID)
	assert.Nil(t, back.ReportingImpact)
	assert.NotNil(t, back.Diffs)
}

func TestToModelMatchLegs(t *testing.T) {
	m := domain.Match{
		ID:   "match-1",
		Type: domain.MatchExact,
		A:    domain.Transaction{ExternalID: "T-1", Source: "ledger"},
		B:    domain.Transaction{ExternalID: "T-1", Source: "custodian"},
	}
	row, legs, err := mapping.ToModelMatch(m)
	require.NoError(t, err)
	assert.Equal(t, "exact", row.MatchType)
	assert.JSONEq(t, `[]`, string(row.TieBreakTrail))
	require.Len(t, legs, 2)
	assert.Equal(t, "A", legs[0].Side)
	assert.Equal(t, "custodian", legs[1].Source)
}

func TestReferenceRateCodesAreNormalized(t *testing.T) {
	row := mapping.ToModelReferenceRate(domain.ReferenceRate{FromCurrency: " eur", ToCurrency: "usd", Rate: decimal.RequireFromString("1.1")})
	assert.Equal(t, "EUR", row.FromCurrencyCode)
	assert.Equal(t, "USD", row.ToCurrencyCode)
}
