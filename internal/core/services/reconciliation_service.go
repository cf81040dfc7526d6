package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/engine"
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
)

const (
	defaultExceptionLimit = 100
	maxExceptionLimit     = 1000
)

// reconciliationServiceImpl implements the ReconciliationSvcFacade interface
type reconciliationServiceImpl struct {
	BaseService
	engine    *engine.Engine
	results   portsrepo.ResultRepositoryFacade
	rates     portsrepo.ReferenceRateReader
	annotator portssvc.ExceptionAnnotator
	now       func() time.Time
}

// ReconciliationOption is a functional option for configuring the reconciliation service
type ReconciliationOption func(*reconciliationServiceImpl)

// WithResultRepository persists results and skips transactions consumed by earlier batches
func WithResultRepository(repo portsrepo.ResultRepositoryFacade) ReconciliationOption {
	return func(s *reconciliationServiceImpl) {
		s.results = repo
	}
}

// WithReferenceRateReader loads reference FX rates for batches that bring none
func WithReferenceRateReader(repo portsrepo.ReferenceRateReader) ReconciliationOption {
	return func(s *reconciliationServiceImpl) {
		s.rates = repo
	}
}

// WithExceptionAnnotator enriches exceptions after classification
func WithExceptionAnnotator(annotator portssvc.ExceptionAnnotator) ReconciliationOption {
	return func(s *reconciliationServiceImpl) {
		s.annotator = annotator
	}
}

// WithServiceLogger sets the logger used outside request scope
func WithServiceLogger(logger *slog.Logger) ReconciliationOption {
	return func(s *reconciliationServiceImpl) {
		s.Logger = logger
	}
}

// WithNow sets the clock used to stamp batches that carry no as-of time
func WithNow(now func() time.Time) ReconciliationOption {
	return func(s *reconciliationServiceImpl) {
		s.now = now
	}
}

// NewReconciliationService creates a new reconciliation service with the provided options
func NewReconciliationService(eng *engine.Engine, options ...ReconciliationOption) portssvc.ReconciliationSvcFacade {
	svc := &reconciliationServiceImpl{
		engine: eng,
		now:    time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure reconciliationServiceImpl implements the ReconciliationSvcFacade interface
var _ portssvc.ReconciliationSvcFacade = (*reconciliationServiceImpl)(nil)

func (s *reconciliationServiceImpl) Reconcile(ctx context.Context, batch domain.Batch) (*domain.Result, error) {
	if batch.AsOf.IsZero() {
		batch.AsOf = s.now().UTC()
	}

	batch, err := s.skipConsumed(ctx, batch)
	if err != nil {
		return nil, err
	}

	if len(batch.Reference.FXRates) == 0 && s.rates != nil {
		rates, err := s.rates.FindRatesOn(ctx, batch.AsOf)
		if err != nil {
			s.LogError(ctx, err, "Failed to load reference rates", slog.Time("as_of", batch.AsOf))
			return nil, fmt.Errorf("failed to load reference rates: %w", err)
		}
		batch.Reference.FXRates = rates
	}

	result, err := s.engine.Run(ctx, batch)
	if err != nil {
		s.LogError(ctx, err, "Reconciliation run failed", slog.String("batch_id", batch.ID))
		return nil, fmt.Errorf("failed to reconcile batch: %w", err)
	}

	s.annotate(ctx, result)

	if s.results != nil {
		if err := s.results.SaveResult(ctx, *result); err != nil {
			s.LogError(ctx, err, "Failed to save reconciliation result", slog.String("batch_id", result.BatchID))
			return nil, fmt.Errorf("failed to save reconciliation result: %w", err)
		}
	}

	s.LogInfo(ctx, "Batch reconciled",
		slog.String("batch_id", result.BatchID),
		slog.Int("matches", len(result.Matches)),
		slog.Int("exceptions", len(result.Exceptions)))
	return result, nil
}

// skipConsumed drops transactions that an earlier batch already matched.
func (s *reconciliationServiceImpl) skipConsumed(ctx context.Context, batch domain.Batch) (domain.Batch, error) {
	if s.results == nil {
		return batch, nil
	}
	refs := make([]domain.TransactionRef, 0, len(batch.SourceA)+len(batch.SourceB))
	for _, t := range batch.SourceA {
		refs = append(refs, t.Ref(domain.SideA))
	}
	for _, t := range batch.SourceB {
		refs = append(refs, t.Ref(domain.SideB))
	}
	if len(refs) == 0 {
		return batch, nil
	}

	consumed, err := s.results.FindConsumedTransactions(ctx, refs)
	if err != nil {
		s.LogError(ctx, err, "Failed to look up consumed transactions")
		return batch, fmt.Errorf("failed to look up consumed transactions: %w", err)
	}
	if len(consumed) == 0 {
		return batch, nil
	}

	keep := func(side domain.Side, txs []domain.Transaction) []domain.Transaction {
		out := make([]domain.Transaction, 0, len(txs))
		for _, t := range txs {
			if _, done := consumed[t.Ref(side).Key()]; !done {
				out = append(out, t)
			}
		}
		return out
	}
	batch.SourceA = keep(domain.SideA, batch.SourceA)
	batch.SourceB = keep(domain.SideB, batch.SourceB)
	s.LogInfo(ctx, "Skipping transactions consumed by earlier batches", slog.Int("count", len(consumed)))
	return batch, nil
}

// annotate runs strictly after classification. Annotator failures are
// logged and leave the exception unannotated.
func (s *reconciliationServiceImpl) annotate(ctx context.Context, result *domain.Result) {
	if s.annotator == nil {
		return
	}
	for i := range result.Exceptions {
		exc := &result.Exceptions[i]
		note, err := s.annotator.Annotate(ctx, exc.Context())
		if err != nil {
			s.LogWarn(ctx, "Exception annotation failed",
				slog.String("exception_id", exc.ID),
				slog.String("error", err.Error()))
			continue
		}
		exc.Annotation = strings.TrimSpace(note)
	}
}

func (s *reconciliationServiceImpl) ListExceptions(ctx context.Context, batchID string, limit int, nextToken *string) ([]domain.Exception, *string, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, nil, apperrors.NewValidationError("batch id is required")
	}
	if limit <= 0 {
		limit = defaultExceptionLimit
	}
	if limit > maxExceptionLimit {
		limit = maxExceptionLimit
	}
	if s.results == nil {
		return nil, nil, fmt.Errorf("%w: no result storage configured", apperrors.ErrNotFound)
	}
	exceptions, next, err := s.results.FindExceptionsByBatch(ctx, batchID, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list exceptions", slog.String("batch_id", batchID))
		return nil, nil, fmt.Errorf("failed to list exceptions for batch %s: %w", batchID, err)
	}
	return exceptions, next, nil
}
