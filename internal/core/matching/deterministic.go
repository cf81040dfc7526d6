package matching

import (
	"fmt"
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/utils/finance"
)

// Exact key names, in priority order.
const (
	KeyExternalID = "external_id"
	KeySecurityID = "amount_currency_security_id"
	KeyTradeDate  = "amount_currency_trade_date"
)

// Pair is a proposed match between a[AIndex] and b[BIndex].
type Pair struct {
	AIndex     int
	BIndex     int
	Type       domain.MatchType
	Score      float64
	Components *Components // Nil for exact pairs
	Fields     []string
	Trail      []string
	Review     bool
}

// ExactResult is the output of the deterministic phase.
type ExactResult struct {
	Pairs     []Pair
	ResidualA []int // Unclaimed indexes into a, ascending
	ResidualB []int
}

// DeterministicMatcher pairs transactions that agree on an exact key.
type DeterministicMatcher struct {
	cfg Config
}

// NewDeterministicMatcher creates a DeterministicMatcher.
func NewDeterministicMatcher(cfg Config) *DeterministicMatcher {
	return &DeterministicMatcher{cfg: cfg}
}

// Match runs the three exact keys in priority order. For each key the first
// unclaimed A and the first unclaimed B sharing it are paired, and lower keys
// only see what higher keys left behind.
func (m *DeterministicMatcher) Match(a, b []domain.Transaction) ExactResult {
	claimedA := make([]bool, len(a))
	claimedB := make([]bool, len(b))
	var pairs []Pair

	commit := func(i, j int, key string, fields []string, candidates int) {
		claimedA[i], claimedB[j] = true, true
		pairs = append(pairs, Pair{
			AIndex: i,
			BIndex: j,
			Type:   domain.MatchExact,
			Score:  1.0,
			Fields: fields,
			Trail: []string{
				"key=" + key,
				fmt.Sprintf("a_index=%d", i),
				fmt.Sprintf("b_index=%d", j),
				fmt.Sprintf("b_candidates=%d", candidates),
			},
		})
	}

	// 1. external identifier
	byID := indexB(b, func(t domain.Transaction) []string {
		return []string{strings.TrimSpace(t.ExternalID)}
	})
	for i, ta := range a {
		if claimedA[i] {
			continue
		}
		if j, n := firstUnclaimed(byID[strings.TrimSpace(ta.ExternalID)], claimedB); j >= 0 {
			commit(i, j, KeyExternalID, []string{"externalId"}, n)
		}
	}

	// 2. amount + currency + any shared security identifier
	bySecurity := indexB(b, securityKeys)
	for i, ta := range a {
		if claimedA[i] {
			continue
		}
		best, bestField, total := -1, domain.IdentifierField(""), 0
		for _, field := range domain.IdentifierFields {
			id := ta.Securities.Get(field)
			if id == "" {
				continue
			}
			j, n := firstUnclaimed(bySecurity[securityKey(ta, field, id)], claimedB)
			total += n
			if j >= 0 && (best < 0 || j < best) {
				best, bestField = j, field
			}
		}
		if best >= 0 {
			commit(i, best, KeySecurityID, []string{"amount", "currency", string(bestField)}, total)
		}
	}

	// 3. amount + currency + trade date within the window
	byAmount := indexB(b, func(t domain.Transaction) []string {
		return []string{amountKey(t)}
	})
	for i, ta := range a {
		if claimedA[i] || ta.TradeDate == nil {
			continue
		}
		candidates := byAmount[amountKey(ta)]
		n, chosen := 0, -1
		for _, j := range candidates {
			tb := b[j]
			if claimedB[j] || tb.TradeDate == nil {
				continue
			}
			days := finance.ActualDays(*ta.TradeDate, *tb.TradeDate)
			if days < 0 {
				days = -days
			}
			if days > m.cfg.ExactDateWindowDays {
				continue
			}
			n++
			if chosen < 0 {
				chosen = j
			}
		}
		if chosen >= 0 {
			commit(i, chosen, KeyTradeDate, []string{"amount", "currency", "tradeDate"}, n)
		}
	}

	return ExactResult{
		Pairs:     pairs,
		ResidualA: unclaimed(claimedA),
		ResidualB: unclaimed(claimedB),
	}
}

// amountKey normalizes amount and currency; decimal String drops trailing zeros
// so 100.50 and 100.5 share a key.
func amountKey(t domain.Transaction) string {
	return t.AmountValue().String() + "|" + strings.ToUpper(t.Currency)
}

func securityKey(t domain.Transaction, field domain.IdentifierField, id string) string {
	return amountKey(t) + "|" + string(field) + "=" + strings.ToUpper(strings.TrimSpace(id))
}

func securityKeys(t domain.Transaction) []string {
	var keys []string
	for _, field := range domain.IdentifierFields {
		if id := t.Securities.Get(field); id != "" {
			keys = append(keys, securityKey(t, field, id))
		}
	}
	return keys
}

// indexB maps each key to the B indexes carrying it, in input order.
func indexB(b []domain.Transaction, keys func(domain.Transaction) []string) map[string][]int {
	idx := make(map[string][]int, len(b))
	for j, t := range b {
		for _, k := range keys(t) {
			if k == "" {
				continue
			}
			idx[k] = append(idx[k], j)
		}
	}
	return idx
}

// firstUnclaimed returns the first unclaimed index and how many were unclaimed.
func firstUnclaimed(candidates []int, claimed []bool) (int, int) {
	first, n := -1, 0
	for _, j := range candidates {
		if claimed[j] {
			continue
		}
		n++
		if first < 0 {
			first = j
		}
	}
	return first, n
}

func unclaimed(claimed []bool) []int {
	out := make([]int, 0, len(claimed))
	for i, c := range claimed {
		if !c {
			out = append(out, i)
		}
	}
	return out
}
