package repositories

import (
	"context"

	"github.com/SscSPs/recon_engine/internal/core/domain"
)

// ResultReader defines read operations for stored reconciliation results
type ResultReader interface {
	// FindConsumedTransactions returns the keys (see domain.TransactionRef.Key)
	// of the given references that an earlier batch already matched.
	FindConsumedTransactions(ctx context.Context, refs []domain.TransactionRef) (map[string]struct{}, error)

	// FindExceptionsByBatch lists one page of a batch's exceptions in emission
	// order, returning the token of the next page or nil on the last one.
	FindExceptionsByBatch(ctx context.Context, batchID string, limit int, nextToken *string) ([]domain.Exception, *string, error)
}

// ResultWriter defines write operations for reconciliation results
type ResultWriter interface {
	// SaveResult persists a batch with its matches and exceptions atomically.
	// Rows that already exist are left untouched.
	SaveResult(ctx context.Context, result domain.Result) error
}

// ResultRepositoryFacade combines all result-related repository interfaces
type ResultRepositoryFacade interface {
	ResultReader
	ResultWriter
}

// ResultRepositoryWithTx extends ResultRepositoryFacade with transaction capabilities
type ResultRepositoryWithTx interface {
	ResultRepositoryFacade
	TransactionManager
}
