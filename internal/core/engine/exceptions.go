package engine

import (
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/detectors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/matching"
	"github.com/SscSPs/recon_engine/internal/utils"
	"github.com/shopspring/decimal"
)

// subject is a detector subject plus what matching knew about it.
type subject struct {
	detectors.Subject
	pair      *matching.Pair     // Set for matched pairs
	unmatched matching.Unmatched // Set for single transactions
}

// anchor is what the subject's exception ids are keyed on.
func (s subject) anchor() string {
	if s.IsPair() {
		return s.Match.ID
	}
	return s.Refs()[0].Key()
}

// inspect produces every exception for one subject in a fixed order: the
// matching outcome first, then detector breaks in detector order.
func (e *Engine) inspect(r run, s subject) []domain.Exception {
	var out []domain.Exception

	if s.IsPair() {
		if s.Match.ReviewRequired {
			out = append(out, e.finish(r, s, e.lowConfidence(s)))
		}
	} else {
		out = append(out, e.finish(r, s, e.noMatch(s)))
		if !e.cfg.Detectors.ScreenUnmatched {
			return out
		}
	}

	for _, d := range e.detectors {
		if exc := d.Detect(s.Subject, r.ref); exc != nil {
			out = append(out, e.finish(r, s, exc))
		}
	}
	return out
}

func (e *Engine) lowConfidence(s subject) *domain.Exception {
	m := s.Match
	detail := domain.LowConfidenceDetail{
		Score:           m.Confidence,
		AutoAcceptFloor: e.cfg.Matching.AutoAcceptThreshold,
		ReviewFloor:     e.cfg.Matching.ReviewThreshold,
		ComponentScores: map[string]float64{},
	}
	if s.pair != nil && s.pair.Components != nil {
		detail.ComponentScores = s.pair.Components.AsMap()
	}
	exc := &domain.Exception{
		Type:         domain.BreakLowConfidence,
		Detail:       detail,
		Transactions: s.Refs(),
		Impact:       m.A.AmountValue().Sub(m.B.AmountValue()).Abs(),
		Currency:     m.A.Currency,
	}
	return exc
}

func (e *Engine) noMatch(s subject) *domain.Exception {
	tx := s.Primary()
	detail := domain.NoMatchDetail{
		Side:          s.Side,
		BestCandidate: s.unmatched.BestCandidate,
		BestScore:     s.unmatched.BestScore,
		ReviewFloor:   e.cfg.Matching.ReviewThreshold,
	}
	exc := &domain.Exception{
		Type:         domain.BreakNoMatch,
		Detail:       detail,
		Transactions: s.Refs(),
		Impact:       tx.AmountValue(),
		Currency:     tx.Currency,
	}
	if s.unmatched.BestCandidate != "" {
		exc.Diffs = []domain.FieldDiff{{Field: "best_candidate", Before: tx.ExternalID, After: s.unmatched.BestCandidate}}
	}
	return exc
}

// finish stamps identity and status, converts the impact to the reporting
// currency and assigns a severity.
func (e *Engine) finish(r run, s subject, exc *domain.Exception) domain.Exception {
	out := *exc
	out.ID = domain.ExceptionID(s.anchor(), out.Type)
	out.Status = domain.StatusOpen
	out.BatchStamp = r.stamp
	out.Currency = strings.ToUpper(out.Currency)
	if out.Diffs == nil {
		out.Diffs = []domain.FieldDiff{}
	}
	if s.IsPair() {
		out.MatchID = s.Match.ID
		if out.Confidence == nil && s.Match.Type == domain.MatchFuzzy {
			c := s.Match.Confidence
			out.Confidence = &c
		}
	}
	out.Impact = utils.RoundToCurrency(out.Impact, out.Currency)

	reporting := strings.ToUpper(e.cfg.Classification.ReportingCurrency)
	if converted, ok := r.toReporting(out.Impact, out.Currency, reporting); ok {
		out.ReportingImpact = &converted
		out.ReportingCurrency = reporting
	}
	out.Severity = e.scorer.ScoreException(out)
	return out
}

// toReporting converts amount at the batch-date reference rate, falling back
// to the most recent rate on file.
func (r run) toReporting(amount decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	if from == "" {
		return decimal.Zero, false
	}
	rate, ok := r.ref.FXRate(from, to, r.stamp.CreatedAt)
	if !ok {
		rate, ok = r.ref.LatestFXRate(from, to)
	}
	if !ok {
		return decimal.Zero, false
	}
	return utils.RoundToCurrency(amount.Mul(rate), to), true
}
