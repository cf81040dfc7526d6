package matching_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/matching"
	"pgregory.net/rapid"
)

func genTransactions(t *rapid.T, label string) []domain.Transaction {
	n := rapid.IntRange(0, 8).Draw(t, label+"_n")
	out := make([]domain.Transaction, n)
	for i := range out {
		id := rapid.SampledFrom([]string{"X1", "X2", "X3", fmt.Sprintf("%s-%d", label, i)}).Draw(t, label+"_id")
		amount := rapid.SampledFrom([]string{"100", "100.00", "101", "250", "900", "1000"}).Draw(t, label+"_amount")
		ccy := rapid.SampledFrom([]string{"USD", "EUR"}).Draw(t, label+"_ccy")
		d := rapid.IntRange(10, 20).Draw(t, label+"_day")
		txn := tx(id, amount, ccy, d)
		if rapid.Bool().Draw(t, label+"_has_isin") {
			txn.Securities.ISIN = rapid.SampledFrom([]string{"US0378331005", "US0378331006", "GB0002634946"}).Draw(t, label+"_isin")
		}
		out[i] = txn
	}
	return out
}

func matchAll(a, b []domain.Transaction) (matching.ExactResult, matching.FuzzyResult, error) {
	exact := matching.NewDeterministicMatcher(matching.DefaultConfig()).Match(a, b)
	fuzzy, err := matching.NewFuzzyMatcher(matching.DefaultConfig(), nil).
		Match(context.Background(), a, b, exact.ResidualA, exact.ResidualB)
	return exact, fuzzy, err
}

// Every transaction ends up in exactly one pair or in the unmatched pool.
func TestProperty_EveryTransactionAccountedForOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genTransactions(t, "a")
		b := genTransactions(t, "b")

		exact, fuzzy, err := matchAll(a, b)
		if err != nil {
			t.Fatalf("match: %v", err)
		}

		seenA := make([]int, len(a))
		seenB := make([]int, len(b))
		for _, p := range append(append([]matching.Pair{}, exact.Pairs...), fuzzy.Pairs...) {
			seenA[p.AIndex]++
			seenB[p.BIndex]++
		}
		for _, u := range fuzzy.UnmatchedA {
			seenA[u.Index]++
		}
		for _, u := range fuzzy.UnmatchedB {
			seenB[u.Index]++
		}
		for i, n := range seenA {
			if n != 1 {
				t.Fatalf("A[%d] accounted for %d times", i, n)
			}
		}
		for j, n := range seenB {
			if n != 1 {
				t.Fatalf("B[%d] accounted for %d times", j, n)
			}
		}
	})
}

// Two runs over the same input produce the same pairs, scores and trails.
func TestProperty_MatchingIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genTransactions(t, "a")
		b := genTransactions(t, "b")

		exact1, fuzzy1, err := matchAll(a, b)
		if err != nil {
			t.Fatalf("first run: %v", err)
		}
		exact2, fuzzy2, err := matchAll(a, b)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}

		if fmt.Sprint(exact1.Pairs) != fmt.Sprint(exact2.Pairs) {
			t.Fatalf("exact pairs differ:\n%v\n%v", exact1.Pairs, exact2.Pairs)
		}
		if len(fuzzy1.Pairs) != len(fuzzy2.Pairs) {
			t.Fatalf("fuzzy pair count differs: %d vs %d", len(fuzzy1.Pairs), len(fuzzy2.Pairs))
		}
		for i := range fuzzy1.Pairs {
			p, q := fuzzy1.Pairs[i], fuzzy2.Pairs[i]
			if p.AIndex != q.AIndex || p.BIndex != q.BIndex || p.Score != q.Score || fmt.Sprint(p.Trail) != fmt.Sprint(q.Trail) {
				t.Fatalf("fuzzy pair %d differs: %+v vs %+v", i, p, q)
			}
		}
	})
}

// Accepted fuzzy pairs never score below the review floor, and exact pairs are always 1.0.
func TestProperty_ScoresRespectBands(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genTransactions(t, "a")
		b := genTransactions(t, "b")
		cfg := matching.DefaultConfig()

		exact, fuzzy, err := matchAll(a, b)
		if err != nil {
			t.Fatalf("match: %v", err)
		}
		for _, p := range exact.Pairs {
			if p.Score != 1.0 {
				t.Fatalf("exact pair with score %v", p.Score)
			}
		}
		for _, p := range fuzzy.Pairs {
			if p.Score < cfg.ReviewThreshold || p.Score > 1 {
				t.Fatalf("fuzzy pair score %v outside [%v, 1]", p.Score, cfg.ReviewThreshold)
			}
			if p.Review != (p.Score < cfg.AutoAcceptThreshold) {
				t.Fatalf("review flag %v inconsistent with score %v", p.Review, p.Score)
			}
		}
	})
}
