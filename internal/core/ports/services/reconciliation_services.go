package services

import (
	"context"

	"github.com/SscSPs/recon_engine/internal/core/domain"
)

// ReconciliationRunnerSvc defines the batch reconciliation operation
type ReconciliationRunnerSvc interface {
	// Reconcile runs one batch through matching, detection and classification.
	Reconcile(ctx context.Context, batch domain.Batch) (*domain.Result, error)
}

// ReconciliationReaderSvc defines read operations over stored results
type ReconciliationReaderSvc interface {
	// ListExceptions returns one page of the exceptions raised by a batch.
	ListExceptions(ctx context.Context, batchID string, limit int, nextToken *string) ([]domain.Exception, *string, error)
}

// ReconciliationSvcFacade combines all reconciliation service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationRunnerSvc
	ReconciliationReaderSvc
}

// ExceptionAnnotator attaches free-text context to a classified exception.
// It only ever sees a read-only copy and its output is never read back by
// matching or classification.
type ExceptionAnnotator interface {
	Annotate(ctx context.Context, exc domain.ExceptionContext) (string, error)
}
