package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestTransaction_PrimaryDate(t *testing.T) {
	trade := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	settle := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		tx     domain.Transaction
		want   time.Time
		wantOK bool
	}{
		{"trade date preferred", domain.Transaction{TradeDate: &trade, SettlementDate: &settle}, trade, true},
		{"settlement fallback", domain.Transaction{SettlementDate: &settle}, settle, true},
		{"no dates", domain.Transaction{}, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.tx.PrimaryDate()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransaction_NotionalValue(t *testing.T) {
	assert.Equal(t, "500", domain.Transaction{Amount: decimalPtr("100"), Notional: decimalPtr("500")}.NotionalValue().String())
	assert.Equal(t, "100", domain.Transaction{Amount: decimalPtr("100")}.NotionalValue().String())
	assert.True(t, domain.Transaction{}.NotionalValue().IsZero())
}

func TestSecurityIDs(t *testing.T) {
	ids := domain.SecurityIDs{CUSIP: "037833100", SEDOL: "2046251"}
	assert.Equal(t, "", ids.Get(domain.ISIN))
	assert.Equal(t, "037833100", ids.Get(domain.CUSIP))
	assert.Equal(t, "2046251", ids.Get(domain.SEDOL))
	assert.False(t, ids.IsEmpty())
	assert.True(t, domain.SecurityIDs{}.IsEmpty())
}

func TestReferenceData_FXRate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ref := domain.ReferenceData{
		FXRates: []domain.ReferenceRate{
			{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.25"), DateEffective: day},
			{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.20"), DateEffective: day.AddDate(0, 0, -1)},
		},
	}

	rate, ok := ref.FXRate("eur", "usd", day.Add(10*time.Hour))
	require.True(t, ok)
	assert.Equal(t, "1.25", rate.String())

	rate, ok = ref.FXRate("USD", "EUR", day)
	require.True(t, ok, "inverse lookup")
	assert.Equal(t, "0.8", rate.String())

	rate, ok = ref.FXRate("GBP", "GBP", day)
	require.True(t, ok)
	assert.Equal(t, "1", rate.String())

	_, ok = ref.FXRate("EUR", "USD", day.AddDate(0, 0, 5))
	assert.False(t, ok, "no same-day rate")

	rate, ok = ref.LatestFXRate("EUR", "USD")
	require.True(t, ok)
	assert.Equal(t, "1.25", rate.String())
}

func TestReferenceData_Prices(t *testing.T) {
	ref := domain.ReferenceData{PriceHistory: map[string][]decimal.Decimal{
		"2046251": {decimal.NewFromInt(150)},
	}}
	window, ok := ref.Prices(domain.SecurityIDs{ISIN: "US0378331005", SEDOL: "2046251"})
	require.True(t, ok)
	assert.Len(t, window, 1)

	_, ok = ref.Prices(domain.SecurityIDs{ISIN: "US0378331005"})
	assert.False(t, ok)
}

func TestDeriveID_IsDeterministic(t *testing.T) {
	a := domain.TransactionRef{Side: domain.SideA, Source: "ledger", ExternalID: "T1"}
	b := domain.TransactionRef{Side: domain.SideB, Source: "custodian", ExternalID: "T1"}

	assert.Equal(t, domain.MatchID(a, b), domain.MatchID(a, b))
	assert.NotEqual(t, domain.MatchID(a, b), domain.MatchID(b, a))
	assert.NotEqual(t,
		domain.ExceptionID("m1", domain.BreakCoupon),
		domain.ExceptionID("m1", domain.BreakMarketPrice))
}

func TestSeverity_Rank(t *testing.T) {
	assert.Less(t, domain.SeverityLow.Rank(), domain.SeverityMedium.Rank())
	assert.Less(t, domain.SeverityMedium.Rank(), domain.SeverityHigh.Rank())
	assert.Less(t, domain.SeverityHigh.Rank(), domain.SeverityCritical.Rank())
	assert.Equal(t, 0, domain.Severity("unknown").Rank())
}

func TestUnmarshalDetail_RoundTripsEachVariant(t *testing.T) {
	details := []domain.Detail{
		domain.SecurityIdentifierDetail{MismatchType: domain.SEDOL},
		domain.CouponDetail{DayCount: "30/360", Difference: decimal.NewFromInt(1000)},
		domain.MarketPriceDetail{Reasons: []string{domain.PriceReasonTolerance}},
		domain.SettlementDateDetail{ExpectedCycleDays: 2},
		domain.FXRateDetail{CurrencyPair: "EUR/USD"},
		domain.NoMatchDetail{Side: domain.SideA},
		domain.LowConfidenceDetail{Score: 0.6},
	}

	for _, want := range details {
		t.Run(string(want.BreakType()), func(t *testing.T) {
			raw, err := json.Marshal(want)
			require.NoError(t, err)
			got, err := domain.UnmarshalDetail(want.BreakType(), raw)
			require.NoError(t, err)
			assert.Equal(t, want.BreakType(), got.BreakType())
			assert.IsType(t, want, got)
		})
	}

	_, err := domain.UnmarshalDetail("bogus", []byte(`{}`))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestException_ContextCopiesSlices(t *testing.T) {
	confidence := 0.7
	exc := domain.Exception{
		ID:         "e1",
		Type:       domain.BreakCoupon,
		Diffs:      []domain.FieldDiff{{Field: "coupon.amount", Before: "50000", After: "51000"}},
		Confidence: &confidence,
	}
	ctx := exc.Context()
	ctx.Diffs[0].After = "changed"
	*ctx.Confidence = 0

	assert.Equal(t, "51000", exc.Diffs[0].After)
	assert.Equal(t, 0.7, *exc.Confidence)
	assert.Nil(t, domain.Exception{}.Context().Confidence)
	assert.Equal(t, "e1", ctx.ExceptionID)
	assert.Equal(t, domain.BreakCoupon, ctx.Type)
}
