// Package engine runs one reconciliation batch end to end: record screening,
// deterministic then fuzzy matching, break detection and severity scoring.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/classification"
	"github.com/SscSPs/recon_engine/internal/core/detectors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/matching"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Engine is safe for concurrent use; batches share no mutable state.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	clock     func() time.Time
	detectors []detectors.Detector
	scorer    *classification.Scorer
	validate  *validator.Validate
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for batch and tie-break records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the time source used when a batch carries no AsOf.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithDetectors replaces the default detector set.
func WithDetectors(ds ...detectors.Detector) Option {
	return func(e *Engine) {
		e.detectors = ds
	}
}

// New validates cfg and builds an Engine. An out-of-range configuration
// returns an error wrapping apperrors.ErrConfiguration.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		logger:    slog.Default(),
		clock:     time.Now,
		detectors: detectors.All(cfg.Detectors),
		scorer:    classification.NewScorer(cfg.Classification),
		validate:  newValidator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// run carries the per-batch state.
type run struct {
	stamp domain.BatchStamp
	ref   domain.ReferenceData
}

// Run reconciles one batch. Malformed records are reported, never fatal.
// Given the same batch and configuration the result is identical.
func (e *Engine) Run(ctx context.Context, batch domain.Batch) (*domain.Result, error) {
	asOf := batch.AsOf
	if asOf.IsZero() {
		asOf = e.clock()
	}
	asOf = asOf.UTC()
	batchID := batch.ID
	if batchID == "" {
		batchID = domain.BatchID(batch.SourceA, batch.SourceB)
	}
	r := run{
		stamp: domain.BatchStamp{BatchID: batchID, CreatedAt: asOf},
		ref:   batch.Reference,
	}
	logger := e.logger.With(slog.String("batch_id", batchID))

	a, rejectedA := e.screenRecords(domain.SideA, batch.SourceA)
	b, rejectedB := e.screenRecords(domain.SideB, batch.SourceB)
	rejected := append(rejectedA, rejectedB...)
	if len(rejected) > 0 {
		logger.Warn("Rejected malformed records", slog.Int("count", len(rejected)))
	}

	exact := matching.NewDeterministicMatcher(e.cfg.Matching).Match(a, b)
	logger.Debug("Deterministic phase complete", slog.Int("pairs", len(exact.Pairs)))

	fuzzy, err := matching.NewFuzzyMatcher(e.cfg.Matching, logger).Match(ctx, a, b, exact.ResidualA, exact.ResidualB)
	if err != nil {
		return nil, fmt.Errorf("fuzzy matching batch %s: %w", batchID, err)
	}
	logger.Debug("Fuzzy phase complete", slog.Int("pairs", len(fuzzy.Pairs)), slog.Int("ambiguous_ties", fuzzy.AmbiguousTies))

	pairs := append(append([]matching.Pair{}, exact.Pairs...), fuzzy.Pairs...)
	matches := make([]domain.Match, len(pairs))
	for i, p := range pairs {
		matches[i] = r.newMatch(p, a[p.AIndex], b[p.BIndex])
	}

	subjects := make([]subject, 0, len(matches)+len(fuzzy.UnmatchedA)+len(fuzzy.UnmatchedB))
	for i, m := range matches {
		subjects = append(subjects, subject{Subject: detectors.PairSubject(m), pair: &pairs[i]})
	}
	for _, u := range fuzzy.UnmatchedA {
		subjects = append(subjects, subject{Subject: detectors.SingleSubject(a[u.Index], domain.SideA), unmatched: u})
	}
	for _, u := range fuzzy.UnmatchedB {
		subjects = append(subjects, subject{Subject: detectors.SingleSubject(b[u.Index], domain.SideB), unmatched: u})
	}

	exceptions, err := e.detect(ctx, r, subjects)
	if err != nil {
		return nil, fmt.Errorf("detecting breaks in batch %s: %w", batchID, err)
	}

	result := &domain.Result{
		BatchID:    batchID,
		AsOf:       asOf,
		Matches:    matches,
		Exceptions: exceptions,
	}
	result.Report = buildReport(batch, rejected, exact, fuzzy, exceptions)

	logger.Info("Reconciliation batch complete",
		slog.Int("matches", len(matches)),
		slog.Int("exceptions", len(exceptions)),
		slog.Int("unmatched_a", len(fuzzy.UnmatchedA)),
		slog.Int("unmatched_b", len(fuzzy.UnmatchedB)),
		slog.Int("rejected", len(rejected)),
	)
	return result, nil
}

func (r run) newMatch(p matching.Pair, a, b domain.Transaction) domain.Match {
	return domain.Match{
		ID:             domain.MatchID(a.Ref(domain.SideA), b.Ref(domain.SideB)),
		Type:           p.Type,
		Confidence:     p.Score,
		Fields:         p.Fields,
		TieBreakTrail:  p.Trail,
		ReviewRequired: p.Review,
		A:              a,
		B:              b,
		BatchStamp:     r.stamp,
	}
}

func (e *Engine) workers() int {
	if e.cfg.Matching.Workers > 0 {
		return e.cfg.Matching.Workers
	}
	return runtime.NumCPU()
}

// detect runs every subject concurrently. Each subject writes only its own
// slot, so the flattened output follows subject order.
func (e *Engine) detect(ctx context.Context, r run, subjects []subject) ([]domain.Exception, error) {
	slots := make([][]domain.Exception, len(subjects))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, s := range subjects {
		i, s := i, s
		g.Go(func() error {
			slots[i] = e.inspect(r, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Exception
	for _, slot := range slots {
		out = append(out, slot...)
	}
	return out, nil
}
