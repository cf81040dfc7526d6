package matching

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Unmatched describes a residual transaction the fuzzy phase could not pair.
type Unmatched struct {
	Index         int
	BestCandidate string   // External id of the best-scoring counterpart, if any
	BestScore     *float64 // Nil when the other side was empty
}

// FuzzyResult is the output of the fuzzy phase.
type FuzzyResult struct {
	Pairs         []Pair // In commit order
	UnmatchedA    []Unmatched
	UnmatchedB    []Unmatched
	AmbiguousTies int
}

type candidate struct {
	ai, bi     int // Positions in the residual slices
	score      decimal.Decimal
	amountDiff decimal.Decimal
	bExtID     string
	comps      Components
}

// FuzzyMatcher pairs residual transactions by weighted similarity.
type FuzzyMatcher struct {
	cfg    Config
	logger *slog.Logger
}

// NewFuzzyMatcher creates a FuzzyMatcher. A nil logger falls back to slog.Default.
func NewFuzzyMatcher(cfg Config, logger *slog.Logger) *FuzzyMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FuzzyMatcher{cfg: cfg, logger: logger}
}

// Match scores every residual (a, b) pair concurrently, then commits candidates
// in a single pass ordered by score desc, absolute amount difference asc,
// B external id asc and A input order, skipping either side once claimed.
// Candidates below the review threshold are never committed.
func (m *FuzzyMatcher) Match(ctx context.Context, a, b []domain.Transaction, residualA, residualB []int) (FuzzyResult, error) {
	rows := make([][]candidate, len(residualA))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(m.workers())
	for ai := range residualA {
		ai := ai
		g.Go(func() error {
			ta := a[residualA[ai]]
			row := make([]candidate, len(residualB))
			for bi, j := range residualB {
				tb := b[j]
				score, comps := Score(ta, tb, m.cfg)
				row[bi] = candidate{
					ai:         ai,
					bi:         bi,
					score:      score,
					amountDiff: ta.AmountValue().Sub(tb.AmountValue()).Abs(),
					bExtID:     tb.ExternalID,
					comps:      comps,
				}
			}
			rows[ai] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FuzzyResult{}, fmt.Errorf("scoring fuzzy candidates: %w", err)
	}

	review := decimal.NewFromFloat(m.cfg.ReviewThreshold)
	accept := decimal.NewFromFloat(m.cfg.AutoAcceptThreshold)

	var eligible []candidate
	for _, row := range rows {
		for _, c := range row {
			if c.score.GreaterThanOrEqual(review) {
				eligible = append(eligible, c)
			}
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return less(eligible[i], eligible[j])
	})

	claimedA := make([]bool, len(residualA))
	claimedB := make([]bool, len(residualB))
	var result FuzzyResult

	for k, c := range eligible {
		if claimedA[c.ai] || claimedB[c.bi] {
			continue
		}
		claimedA[c.ai], claimedB[c.bi] = true, true

		trail := []string{
			"phase=fuzzy",
			"score=" + c.score.StringFixed(scorePlaces),
			fmt.Sprintf("a_index=%d", residualA[c.ai]),
			fmt.Sprintf("b_index=%d", residualB[c.bi]),
		}
		if rivals, exact := m.rivals(eligible[k+1:], c, claimedB); rivals > 0 {
			result.AmbiguousTies++
			rule := "amount_diff,b_external_id"
			if exact {
				rule = "input_order"
			}
			trail = append(trail, fmt.Sprintf("tie=%d rivals at equal score resolved by %s", rivals, rule))
			m.logger.Info("Ambiguous fuzzy match resolved by tie-break",
				slog.String("a_external_id", a[residualA[c.ai]].ExternalID),
				slog.String("b_external_id", c.bExtID),
				slog.String("score", c.score.StringFixed(scorePlaces)),
				slog.Int("rivals", rivals),
				slog.String("resolved_by", rule),
			)
		}

		comps := c.comps
		pair := Pair{
			AIndex:     residualA[c.ai],
			BIndex:     residualB[c.bi],
			Type:       domain.MatchFuzzy,
			Score:      c.score.InexactFloat64(),
			Components: &comps,
			Fields:     contributingFields(comps),
			Review:     c.score.LessThan(accept),
		}
		if pair.Review {
			trail = append(trail, "band=review")
		} else {
			trail = append(trail, "band=auto_accept")
		}
		pair.Trail = trail
		result.Pairs = append(result.Pairs, pair)
	}

	result.UnmatchedA = m.unmatchedA(rows, residualA, claimedA, b, residualB)
	result.UnmatchedB = m.unmatchedB(rows, residualB, claimedB, a, residualA)
	return result, nil
}

func (m *FuzzyMatcher) workers() int {
	if m.cfg.Workers > 0 {
		return m.cfg.Workers
	}
	return runtime.NumCPU()
}

// less is the commit order. The final keys make the order total.
func less(x, y candidate) bool {
	if c := x.score.Cmp(y.score); c != 0 {
		return c > 0
	}
	if c := x.amountDiff.Cmp(y.amountDiff); c != 0 {
		return c < 0
	}
	if x.bExtID != y.bExtID {
		return x.bExtID < y.bExtID
	}
	if x.ai != y.ai {
		return x.ai < y.ai
	}
	return x.bi < y.bi
}

// rivals counts the other still-unclaimed B candidates of the same A that
// share the committed score. exact reports whether one of them also tied on
// amount difference and external id.
func (m *FuzzyMatcher) rivals(rest []candidate, c candidate, claimedB []bool) (int, bool) {
	n, exact := 0, false
	for _, r := range rest {
		if !r.score.Equal(c.score) {
			break
		}
		if r.ai != c.ai || claimedB[r.bi] {
			continue
		}
		n++
		if r.amountDiff.Equal(c.amountDiff) && r.bExtID == c.bExtID {
			exact = true
		}
	}
	return n, exact
}

func (m *FuzzyMatcher) unmatchedA(rows [][]candidate, residualA []int, claimedA []bool, b []domain.Transaction, residualB []int) []Unmatched {
	var out []Unmatched
	for ai, idx := range residualA {
		if claimedA[ai] {
			continue
		}
		u := Unmatched{Index: idx}
		if best, ok := bestOf(rows[ai]); ok {
			score := best.score.InexactFloat64()
			u.BestCandidate, u.BestScore = b[residualB[best.bi]].ExternalID, &score
		}
		out = append(out, u)
	}
	return out
}

func (m *FuzzyMatcher) unmatchedB(rows [][]candidate, residualB []int, claimedB []bool, a []domain.Transaction, residualA []int) []Unmatched {
	var out []Unmatched
	for bi, idx := range residualB {
		if claimedB[bi] {
			continue
		}
		column := make([]candidate, 0, len(rows))
		for _, row := range rows {
			column = append(column, row[bi])
		}
		u := Unmatched{Index: idx}
		if best, ok := bestOf(column); ok {
			score := best.score.InexactFloat64()
			u.BestCandidate, u.BestScore = a[residualA[best.ai]].ExternalID, &score
		}
		out = append(out, u)
	}
	return out
}

func bestOf(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if less(c, best) {
			best = c
		}
	}
	return best, true
}

// contributingFields lists the terms that scored above zero.
func contributingFields(c Components) []string {
	var fields []string
	if c.Amount.IsPositive() {
		fields = append(fields, "amount")
	}
	if c.Currency.IsPositive() {
		fields = append(fields, "currency")
	}
	if c.IdentifierField != "" && c.Identifier.IsPositive() {
		fields = append(fields, string(c.IdentifierField))
	}
	if c.Date.IsPositive() {
		fields = append(fields, "date")
	}
	return fields
}
