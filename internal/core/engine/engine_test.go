package engine_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2024, 1, 19, 18, 0, 0, 0, time.UTC)

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func jan(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func tx(id, amount string) domain.Transaction {
	return domain.Transaction{ExternalID: id, Amount: dec(amount), Currency: "USD", TradeDate: jan(15)}
}

// fixtureBatch holds one exactly-matched pair per detector break type plus
// an orphan on side A.
func fixtureBatch() domain.Batch {
	sedolA, sedolB := tx("T-SEDOL", "250000"), tx("T-SEDOL", "250000")
	sedolA.Securities.SEDOL, sedolB.Securities.SEDOL = "2046251", "2046252"

	couponA, couponB := tx("T-COUPON", "50000"), tx("T-COUPON", "51000")
	couponA.Coupon = &domain.Coupon{Rate: decimal.RequireFromString("0.05"), DayCount: "30/360", Frequency: 2}
	couponB.Coupon = &domain.Coupon{Rate: decimal.RequireFromString("0.05"), DayCount: "30/360", Frequency: 2}

	priceA, priceB := tx("T-PRICE", "15025"), tx("T-PRICE", "15775")
	priceA.Price, priceB.Price = dec("150.25"), dec("157.75")
	priceA.Quantity, priceB.Quantity = dec("100"), dec("100")

	settleA, settleB := tx("T-SETTLE", "1000000"), tx("T-SETTLE", "1000000")
	settleA.AssetClass, settleB.AssetClass = "equity", "equity"
	settleA.SettlementDate, settleB.SettlementDate = jan(17), jan(18)

	fxA, fxB := tx("T-FX", "10000"), tx("T-FX", "10000")
	for _, leg := range []*domain.Transaction{&fxA, &fxB} {
		leg.Currency, leg.BaseCurrency = "EUR", "USD"
		leg.Notional = dec("10000")
	}
	fxA.FXRate, fxB.FXRate = dec("1.0000"), dec("1.0500")

	return domain.Batch{
		ID:      "batch-1",
		AsOf:    asOf,
		SourceA: []domain.Transaction{sedolA, couponA, priceA, settleA, fxA, tx("ORPHAN", "5")},
		SourceB: []domain.Transaction{sedolB, couponB, priceB, settleB, fxB},
	}
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig())
	require.NoError(t, err)
	return e
}

func byType(excs []domain.Exception) map[domain.BreakType]domain.Exception {
	out := make(map[domain.BreakType]domain.Exception, len(excs))
	for _, e := range excs {
		out[e.Type] = e
	}
	return out
}

func TestRun_FiveBreakFixtures(t *testing.T) {
	res, err := newEngine(t).Run(context.Background(), fixtureBatch())
	require.NoError(t, err)

	require.Len(t, res.Matches, 5)
	for _, m := range res.Matches {
		assert.Equal(t, domain.MatchExact, m.Type)
		assert.Equal(t, "batch-1", m.BatchID)
		assert.Equal(t, asOf, m.CreatedAt)
	}
	require.Len(t, res.Exceptions, 6)

	got := byType(res.Exceptions)

	sedol := got[domain.BreakSecurityIdentifier]
	assert.Equal(t, domain.SEDOL, sedol.Detail.(domain.SecurityIdentifierDetail).MismatchType)
	assert.Equal(t, domain.SeverityCritical, sedol.Severity)

	coupon := got[domain.BreakCoupon]
	assert.Equal(t, "1000", coupon.Impact.String())
	assert.Equal(t, domain.SeverityLow, coupon.Severity)

	price := got[domain.BreakMarketPrice]
	assert.Equal(t, "750", price.Impact.String())

	settle := got[domain.BreakSettlementDate]
	assert.Equal(t, domain.SeverityHigh, settle.Severity)

	fx := got[domain.BreakFXRate]
	assert.Equal(t, "500", fx.Impact.String(), "10000 notional at a 0.05 rate difference")
	assert.Equal(t, "USD", fx.Currency)

	orphan := got[domain.BreakNoMatch]
	assert.Equal(t, domain.SeverityMedium, orphan.Severity)
	assert.Empty(t, orphan.MatchID)
	assert.Equal(t, domain.SideA, orphan.Detail.(domain.NoMatchDetail).Side)

	for _, exc := range res.Exceptions {
		assert.Equal(t, domain.StatusOpen, exc.Status)
		assert.Equal(t, asOf, exc.CreatedAt)
		assert.NotEmpty(t, exc.ID)
		assert.Equal(t, exc.Type, exc.Detail.BreakType())
	}

	assert.Equal(t, 5, res.Report.ExactMatches)
	assert.Equal(t, 1, res.Report.UnmatchedA)
	assert.Equal(t, 0, res.Report.UnmatchedB)
	assert.Equal(t, 1, res.Report.ExceptionsByType[domain.BreakFXRate])
}

func TestRun_OrderIsMatchesThenUnmatched(t *testing.T) {
	res, err := newEngine(t).Run(context.Background(), fixtureBatch())
	require.NoError(t, err)

	var types []domain.BreakType
	for _, exc := range res.Exceptions {
		types = append(types, exc.Type)
	}
	assert.Equal(t, []domain.BreakType{
		domain.BreakSecurityIdentifier,
		domain.BreakCoupon,
		domain.BreakMarketPrice,
		domain.BreakSettlementDate,
		domain.BreakFXRate,
		domain.BreakNoMatch,
	}, types)
}

func TestRun_Deterministic(t *testing.T) {
	e := newEngine(t)
	first, err := e.Run(context.Background(), fixtureBatch())
	require.NoError(t, err)
	second, err := e.Run(context.Background(), fixtureBatch())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestRun_MatchIDsIndependentOfBatch(t *testing.T) {
	e := newEngine(t)
	batch := fixtureBatch()
	first, err := e.Run(context.Background(), batch)
	require.NoError(t, err)

	batch.ID = "batch-2"
	batch.AsOf = asOf.Add(24 * time.Hour)
	second, err := e.Run(context.Background(), batch)
	require.NoError(t, err)

	for i := range first.Matches {
		assert.Equal(t, first.Matches[i].ID, second.Matches[i].ID)
	}
	for i := range first.Exceptions {
		assert.Equal(t, first.Exceptions[i].ID, second.Exceptions[i].ID)
	}
}

func TestRun_RejectsMalformedRecords(t *testing.T) {
	bad := tx("BAD-1", "10")
	bad.Currency = ""
	noDates := tx("BAD-2", "10")
	noDates.TradeDate = nil
	dup := tx("OK-1", "10")

	batch := domain.Batch{
		AsOf:    asOf,
		SourceA: []domain.Transaction{tx("OK-1", "10"), bad, noDates, dup},
		SourceB: []domain.Transaction{tx("OK-1", "10")},
	}
	res, err := newEngine(t).Run(context.Background(), batch)
	require.NoError(t, err)

	require.Len(t, res.Report.Rejected, 4, "missing currency, both dates missing, and a duplicate")
	assert.Equal(t, "currency", res.Report.Rejected[0].Field)
	assert.Equal(t, 1, res.Report.Rejected[0].Index)
	assert.Equal(t, "duplicate external id within source", res.Report.Rejected[3].Reason)
	require.Len(t, res.Matches, 1)
	assert.NotEmpty(t, res.BatchID, "derived from the inputs")
}

func TestRun_KeepsRecordsWithGarbledTermsInPlay(t *testing.T) {
	full, truncated := tx("A-1", "1000000"), tx("B-1", "1000000")
	full.Securities.ISIN = "US0378331005"
	truncated.Securities.ISIN = "US037833100"
	truncated.TradeDate = jan(16)

	oddA, oddB := tx("T-CPN-3", "50000"), tx("T-CPN-3", "50000")
	oddA.Coupon = &domain.Coupon{Rate: decimal.RequireFromString("0.05"), DayCount: "30/360", Frequency: 3}
	oddB.Coupon = &domain.Coupon{Rate: decimal.RequireFromString("0.05"), DayCount: "30/360", Frequency: 3}

	bareA, bareB := tx("T-CPN-DC", "20000"), tx("T-CPN-DC", "20000")
	bareA.Coupon = &domain.Coupon{Rate: decimal.RequireFromString("0.04"), Frequency: 2}
	bareB.Coupon = &domain.Coupon{Rate: decimal.RequireFromString("0.04"), Frequency: 2}

	res, err := newEngine(t).Run(context.Background(), domain.Batch{
		AsOf:    asOf,
		SourceA: []domain.Transaction{full, oddA, bareA},
		SourceB: []domain.Transaction{truncated, oddB, bareB},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Report.Rejected)
	require.Len(t, res.Matches, 3)

	var fuzzy *domain.Match
	for i := range res.Matches {
		if res.Matches[i].Type == domain.MatchFuzzy {
			fuzzy = &res.Matches[i]
		}
	}
	require.NotNil(t, fuzzy, "a truncated ISIN still pairs through edit distance")
	assert.Equal(t, "A-1", fuzzy.A.ExternalID)
	assert.Equal(t, "B-1", fuzzy.B.ExternalID)
	assert.False(t, fuzzy.ReviewRequired)

	var calcErrors []string
	for _, exc := range res.Exceptions {
		assert.NotEqual(t, domain.BreakNoMatch, exc.Type)
		if exc.Type == domain.BreakCoupon {
			assert.Equal(t, domain.SubReasonCalculationError, exc.SubReason)
			require.NotNil(t, exc.Confidence)
			assert.Equal(t, 0.0, *exc.Confidence)
			calcErrors = append(calcErrors, exc.Transactions[0].ExternalID)
		}
	}
	assert.ElementsMatch(t, []string{"T-CPN-3", "T-CPN-DC"}, calcErrors)
}

func TestRun_ReviewBandRaisesLowConfidence(t *testing.T) {
	a := tx("A-1", "1000")
	b := tx("B-1", "700")
	b.TradeDate = jan(18)

	res, err := newEngine(t).Run(context.Background(), domain.Batch{
		AsOf:    asOf,
		SourceA: []domain.Transaction{a},
		SourceB: []domain.Transaction{b},
	})
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, domain.MatchFuzzy, m.Type)
	assert.True(t, m.ReviewRequired)

	require.NotEmpty(t, res.Exceptions)
	low := res.Exceptions[0]
	assert.Equal(t, domain.BreakLowConfidence, low.Type)
	assert.Equal(t, m.ID, low.MatchID)
	require.NotNil(t, low.Confidence)
	assert.InDelta(t, 0.66, *low.Confidence, 1e-9)
	detail := low.Detail.(domain.LowConfidenceDetail)
	assert.Contains(t, detail.ComponentScores, "amount")
	assert.Equal(t, 1, res.Report.ReviewMatches)
}

func TestRun_ImpactConvertedToReportingCurrency(t *testing.T) {
	a, b := tx("T-1", "1000"), tx("T-1", "1000")
	a.Currency, b.Currency = "EUR", "EUR"
	a.Price, b.Price = dec("100"), dec("110")
	a.Quantity = dec("10")

	res, err := newEngine(t).Run(context.Background(), domain.Batch{
		AsOf:    asOf,
		SourceA: []domain.Transaction{a},
		SourceB: []domain.Transaction{b},
		Reference: domain.ReferenceData{FXRates: []domain.ReferenceRate{
			{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.10"), DateEffective: asOf},
		}},
	})
	require.NoError(t, err)

	price := byType(res.Exceptions)[domain.BreakMarketPrice]
	assert.Equal(t, "100", price.Impact.String())
	assert.Equal(t, "EUR", price.Currency)
	require.NotNil(t, price.ReportingImpact)
	assert.Equal(t, "110", price.ReportingImpact.String())
	assert.Equal(t, "USD", price.ReportingCurrency)
}

func TestRun_ScreenUnmatchedCanBeDisabled(t *testing.T) {
	orphan := tx("ORPHAN", "10")
	orphan.SettlementDate = jan(25)

	batch := domain.Batch{AsOf: asOf, SourceA: []domain.Transaction{orphan}}

	res, err := newEngine(t).Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Len(t, res.Exceptions, 2, "no match plus an off-cycle settlement")

	cfg := engine.DefaultConfig()
	cfg.Detectors.ScreenUnmatched = false
	e, err := engine.New(cfg)
	require.NoError(t, err)
	res, err = e.Run(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, domain.BreakNoMatch, res.Exceptions[0].Type)
}

func TestRun_ClockUsedWithoutAsOf(t *testing.T) {
	fixed := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	e, err := engine.New(engine.DefaultConfig(), engine.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	res, err := e.Run(context.Background(), domain.Batch{SourceA: []domain.Transaction{tx("A", "1")}})
	require.NoError(t, err)
	assert.Equal(t, fixed, res.AsOf)
	assert.Equal(t, fixed, res.Exceptions[0].CreatedAt)
}

func TestNew_RejectsOutOfRangeConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*engine.Config)
	}{
		{"negative coupon tolerance", func(c *engine.Config) { c.Detectors.CouponAbsTolerance = decimal.NewFromInt(-1) }},
		{"negative fx tolerance", func(c *engine.Config) { c.Detectors.FXToleranceBps = decimal.NewFromInt(-5) }},
		{"negative price band", func(c *engine.Config) {
			c.Detectors.PriceToleranceByType = map[string]decimal.Decimal{"bond": decimal.NewFromInt(-1)}
		}},
		{"review above auto accept", func(c *engine.Config) { c.Matching.ReviewThreshold = 0.9 }},
		{"threshold above one", func(c *engine.Config) { c.Matching.AutoAcceptThreshold = 1.5 }},
		{"weights do not sum to one", func(c *engine.Config) { c.Matching.Weights.Amount = 0.5 }},
		{"negative date window", func(c *engine.Config) { c.Matching.FuzzyDateWindowDays = -1 }},
		{"low above high impact", func(c *engine.Config) { c.Classification.LowImpactThreshold = decimal.NewFromInt(200000) }},
		{"unknown reporting currency", func(c *engine.Config) { c.Classification.ReportingCurrency = "XYZ" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := engine.DefaultConfig()
			tt.mutate(&cfg)
			_, err := engine.New(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}

	assert.NoError(t, engine.DefaultConfig().Validate())
}
