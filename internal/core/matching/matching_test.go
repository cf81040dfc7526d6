package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/matching"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amt(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func tx(id, amount, ccy string, trade int) domain.Transaction {
	return domain.Transaction{ExternalID: id, Amount: amt(amount), Currency: ccy, TradeDate: day(trade)}
}

func withISIN(t domain.Transaction, isin string) domain.Transaction {
	t.Securities.ISIN = isin
	return t
}

func TestSimilarityTerms(t *testing.T) {
	assert.Equal(t, "0.9", matching.AmountSimilarity(decimal.NewFromInt(100), decimal.NewFromInt(90)).String())
	assert.Equal(t, "0", matching.AmountSimilarity(decimal.NewFromInt(100), decimal.NewFromInt(-100)).String())
	assert.Equal(t, "1", matching.AmountSimilarity(decimal.Zero, decimal.Zero).String())

	assert.Equal(t, "1", matching.CurrencySimilarity("usd", "USD").String())
	assert.Equal(t, "0", matching.CurrencySimilarity("USD", "EUR").String())

	assert.Equal(t, "0.857143", matching.EditSimilarity("2046251", "2046252").StringFixed(6))

	sim, field := matching.IdentifierSimilarity(
		domain.SecurityIDs{CUSIP: "037833100", SEDOL: "2046251"},
		domain.SecurityIDs{ISIN: "US0378331005", SEDOL: "2046252"},
	)
	assert.Equal(t, domain.SEDOL, field, "only SEDOL is present on both sides")
	assert.Equal(t, "0.857143", sim.StringFixed(6))

	sim, field = matching.IdentifierSimilarity(domain.SecurityIDs{}, domain.SecurityIDs{})
	assert.Equal(t, domain.IdentifierField(""), field)
	assert.Equal(t, "0.5", sim.String())

	assert.Equal(t, "0.6", matching.DateProximity(tx("a", "1", "USD", 15), tx("b", "1", "USD", 17), 5).String())
	assert.Equal(t, "0", matching.DateProximity(tx("a", "1", "USD", 15), tx("b", "1", "USD", 25), 5).String())
	assert.Equal(t, "1", matching.DateProximity(tx("a", "1", "USD", 15), tx("b", "1", "USD", 15), 0).String())
}

func TestScore_Weights(t *testing.T) {
	cfg := matching.DefaultConfig()
	a := withISIN(tx("A1", "1000", "USD", 15), "US0378331005")
	b := withISIN(tx("B1", "990", "USD", 16), "US0378331005")

	score, comps := matching.Score(a, b, cfg)
	// 0.4*0.99 + 0.2*1 + 0.2*1 + 0.2*0.8
	assert.Equal(t, "0.956", score.String())
	assert.Equal(t, domain.ISIN, comps.IdentifierField)
}

func TestDeterministicMatcher_KeyPriority(t *testing.T) {
	a := []domain.Transaction{
		tx("T-1", "100", "USD", 15),
		withISIN(tx("A-2", "250", "USD", 15), "US0378331005"),
		tx("A-3", "75.50", "EUR", 16),
		tx("A-4", "999", "USD", 20),
	}
	b := []domain.Transaction{
		tx("B-3", "75.5", "EUR", 16),
		withISIN(tx("B-2", "250.00", "USD", 18), "US0378331005"),
		tx("T-1", "101", "USD", 15),
		tx("B-9", "1", "USD", 1),
	}

	res := matching.NewDeterministicMatcher(matching.DefaultConfig()).Match(a, b)

	require.Len(t, res.Pairs, 3)
	assert.Equal(t, 0, res.Pairs[0].AIndex)
	assert.Equal(t, 2, res.Pairs[0].BIndex)
	assert.Equal(t, "key="+matching.KeyExternalID, res.Pairs[0].Trail[0])

	assert.Equal(t, 1, res.Pairs[1].AIndex)
	assert.Equal(t, 1, res.Pairs[1].BIndex)
	assert.Equal(t, []string{"amount", "currency", "isin"}, res.Pairs[1].Fields)

	assert.Equal(t, 2, res.Pairs[2].AIndex)
	assert.Equal(t, 0, res.Pairs[2].BIndex, "trailing zeros do not change the amount key")
	assert.Equal(t, "key="+matching.KeyTradeDate, res.Pairs[2].Trail[0])

	for _, p := range res.Pairs {
		assert.Equal(t, domain.MatchExact, p.Type)
		assert.Equal(t, 1.0, p.Score)
	}
	assert.Equal(t, []int{3}, res.ResidualA)
	assert.Equal(t, []int{3}, res.ResidualB)
}

func TestDeterministicMatcher_FirstUnclaimedWins(t *testing.T) {
	a := []domain.Transaction{tx("A-1", "10", "USD", 15), tx("A-2", "10", "USD", 15)}
	b := []domain.Transaction{tx("B-1", "10", "USD", 15), tx("B-2", "10", "USD", 15), tx("B-3", "10", "USD", 15)}

	res := matching.NewDeterministicMatcher(matching.DefaultConfig()).Match(a, b)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, [2]int{0, 0}, [2]int{res.Pairs[0].AIndex, res.Pairs[0].BIndex})
	assert.Equal(t, [2]int{1, 1}, [2]int{res.Pairs[1].AIndex, res.Pairs[1].BIndex})
	assert.Equal(t, []int{2}, res.ResidualB)
}

func TestDeterministicMatcher_TradeDateWindow(t *testing.T) {
	a := []domain.Transaction{tx("A-1", "10", "USD", 15)}
	b := []domain.Transaction{tx("B-1", "10", "USD", 17)}

	res := matching.NewDeterministicMatcher(matching.DefaultConfig()).Match(a, b)
	assert.Empty(t, res.Pairs, "default window is zero days")

	cfg := matching.DefaultConfig()
	cfg.ExactDateWindowDays = 2
	res = matching.NewDeterministicMatcher(cfg).Match(a, b)
	assert.Len(t, res.Pairs, 1)
}

func runFuzzy(t *testing.T, a, b []domain.Transaction) matching.FuzzyResult {
	t.Helper()
	ra := make([]int, len(a))
	for i := range ra {
		ra[i] = i
	}
	rb := make([]int, len(b))
	for i := range rb {
		rb[i] = i
	}
	res, err := matching.NewFuzzyMatcher(matching.DefaultConfig(), nil).Match(context.Background(), a, b, ra, rb)
	require.NoError(t, err)
	return res
}

func TestFuzzyMatcher_Bands(t *testing.T) {
	a := []domain.Transaction{
		withISIN(tx("A-1", "1000", "USD", 15), "US0378331005"),
		tx("A-2", "1000", "USD", 15),
		tx("A-3", "1000", "USD", 15),
	}
	b := []domain.Transaction{
		withISIN(tx("B-1", "990", "USD", 16), "US0378331005"),
		tx("B-2", "700", "USD", 18),
		tx("B-3", "100", "EUR", 28),
	}

	res := runFuzzy(t, a, b)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, 0, res.Pairs[0].AIndex)
	assert.Equal(t, 0, res.Pairs[0].BIndex)
	assert.False(t, res.Pairs[0].Review)
	assert.InDelta(t, 0.956, res.Pairs[0].Score, 1e-9)

	// 0.4*0.7 + 0.2*1 + 0.2*0.5 + 0.2*0.4
	assert.True(t, res.Pairs[1].Review)
	assert.InDelta(t, 0.66, res.Pairs[1].Score, 1e-9)
	assert.Contains(t, res.Pairs[1].Trail, "band=review")

	require.Len(t, res.UnmatchedA, 1)
	assert.Equal(t, 2, res.UnmatchedA[0].Index)
	require.Len(t, res.UnmatchedB, 1)
	assert.Equal(t, 2, res.UnmatchedB[0].Index)
	require.NotNil(t, res.UnmatchedB[0].BestScore)
	assert.Less(t, *res.UnmatchedB[0].BestScore, 0.5)
}

func TestFuzzyMatcher_TieBrokenByExternalID(t *testing.T) {
	a := []domain.Transaction{tx("A-1", "1000", "USD", 15)}
	b := []domain.Transaction{tx("B-2", "1000", "USD", 16), tx("B-1", "1000", "USD", 16)}

	res := runFuzzy(t, a, b)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, 1, res.Pairs[0].BIndex, "B-1 sorts before B-2")
	assert.Equal(t, 1, res.AmbiguousTies)
	assert.Contains(t, res.Pairs[0].Trail[len(res.Pairs[0].Trail)-2], "resolved by amount_diff,b_external_id")
}

func TestFuzzyMatcher_GlobalOrderPrefersHigherScore(t *testing.T) {
	// A-1 scores higher against B-1 than A-2 does, so A-2 must not take it.
	a := []domain.Transaction{tx("A-2", "900", "USD", 15), tx("A-1", "1000", "USD", 15)}
	b := []domain.Transaction{tx("B-1", "1000", "USD", 16)}

	res := runFuzzy(t, a, b)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, 1, res.Pairs[0].AIndex)
	require.Len(t, res.UnmatchedA, 1)
	assert.Equal(t, 0, res.UnmatchedA[0].Index)
	assert.Equal(t, "B-1", res.UnmatchedA[0].BestCandidate)
}

func TestFuzzyMatcher_EmptySides(t *testing.T) {
	res := runFuzzy(t, []domain.Transaction{tx("A-1", "1", "USD", 15)}, nil)
	assert.Empty(t, res.Pairs)
	require.Len(t, res.UnmatchedA, 1)
	assert.Nil(t, res.UnmatchedA[0].BestScore)
}
