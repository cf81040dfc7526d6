package pgsql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	"github.com/SscSPs/recon_engine/internal/models"
	"github.com/SscSPs/recon_engine/internal/utils/mapping"
	"github.com/SscSPs/recon_engine/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxResultRepository stores reconciliation results in PostgreSQL.
type PgxResultRepository struct {
	BaseRepository
}

// newPgxResultRepository creates a new repository for reconciliation results.
func newPgxResultRepository(pool *pgxpool.Pool) portsrepo.ResultRepositoryWithTx {
	return &PgxResultRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxResultRepository implements portsrepo.ResultRepositoryWithTx
var _ portsrepo.ResultRepositoryWithTx = (*PgxResultRepository)(nil)

const defaultExceptionPageSize = 100

const (
	insertBatchQuery = `
		INSERT INTO recon_batches (batch_id, as_of, report)
		VALUES ($1, $2, $3)
		ON CONFLICT (batch_id) DO NOTHING;
	`
	insertMatchQuery = `
		INSERT INTO recon_matches (
			match_id, batch_id, match_type, confidence, review_required,
			fields, tie_break_trail, transaction_a, transaction_b, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (match_id) DO NOTHING;
	`
	insertMatchLegQuery = `
		INSERT INTO recon_match_legs (side, source, external_id, match_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (side, source, external_id) DO NOTHING;
	`
	insertExceptionQuery = `
		INSERT INTO recon_exceptions (
			exception_id, batch_id, seq, match_id, break_type, severity, sub_reason,
			detail, diffs, impact, currency, reporting_impact, reporting_currency,
			confidence, status, transactions, annotation, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (exception_id) DO NOTHING;
	`
)

// SaveResult writes the batch, its matches with their consumed legs, and its
// exceptions in one database transaction. Re-running a batch is idempotent.
func (r *PgxResultRepository) SaveResult(ctx context.Context, result domain.Result) error {
	report, err := json.Marshal(result.Report)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode batch report", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(insertBatchQuery, result.BatchID, result.AsOf, report)

	for _, match := range result.Matches {
		modelMatch, legs, err := mapping.ToModelMatch(match)
		if err != nil {
			return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode match "+match.ID, err)
		}
		batch.Queue(insertMatchQuery,
			modelMatch.MatchID,
			modelMatch.BatchID,
			modelMatch.MatchType,
			modelMatch.Confidence,
			modelMatch.ReviewRequired,
			modelMatch.Fields,
			modelMatch.TieBreakTrail,
			modelMatch.TransactionA,
			modelMatch.TransactionB,
			modelMatch.CreatedAt,
		)
		for _, leg := range legs {
			batch.Queue(insertMatchLegQuery, leg.Side, leg.Source, leg.ExternalID, leg.MatchID)
		}
	}

	for i, exc := range result.Exceptions {
		modelExc, err := mapping.ToModelException(exc, i)
		if err != nil {
			return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode exception "+exc.ID, err)
		}
		batch.Queue(insertExceptionQuery,
			modelExc.ExceptionID,
			modelExc.BatchID,
			modelExc.Seq,
			modelExc.MatchID,
			modelExc.BreakType,
			modelExc.Severity,
			modelExc.SubReason,
			modelExc.Detail,
			modelExc.Diffs,
			modelExc.Impact,
			modelExc.Currency,
			modelExc.ReportingImpact,
			modelExc.ReportingCurrency,
			modelExc.Confidence,
			modelExc.Status,
			modelExc.Transactions,
			modelExc.Annotation,
			modelExc.CreatedAt,
		)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Ignored once the transaction is committed
	defer r.Rollback(ctx, tx)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to save reconciliation result for batch "+result.BatchID, err)
	}

	return r.Commit(ctx, tx)
}

// FindConsumedTransactions returns the keys of refs already consumed by a stored match.
func (r *PgxResultRepository) FindConsumedTransactions(ctx context.Context, refs []domain.TransactionRef) (map[string]struct{}, error) {
	consumed := make(map[string]struct{})
	if len(refs) == 0 {
		return consumed, nil
	}

	sides := make([]string, len(refs))
	sources := make([]string, len(refs))
	externalIDs := make([]string, len(refs))
	for i, ref := range refs {
		sides[i] = string(ref.Side)
		sources[i] = ref.Source
		externalIDs[i] = ref.ExternalID
	}

	query := `
		SELECT l.side, l.source, l.external_id
		FROM recon_match_legs l
		JOIN unnest($1::text[], $2::text[], $3::text[]) AS q(side, source, external_id)
		  ON l.side = q.side AND l.source = q.source AND l.external_id = q.external_id;
	`
	rows, err := r.Pool.Query(ctx, query, sides, sources, externalIDs)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query consumed transactions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg models.MatchLeg
		if err := rows.Scan(&leg.Side, &leg.Source, &leg.ExternalID); err != nil {
			return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan consumed transaction", err)
		}
		ref := domain.TransactionRef{Side: domain.Side(leg.Side), Source: leg.Source, ExternalID: leg.ExternalID}
		consumed[ref.Key()] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "error iterating consumed transactions", err)
	}
	return consumed, nil
}

// FindExceptionsByBatch lists a page of a batch's exceptions in the order they
// were emitted. The returned token is nil on the last page.
func (r *PgxResultRepository) FindExceptionsByBatch(ctx context.Context, batchID string, limit int, nextToken *string) ([]domain.Exception, *string, error) {
	if limit <= 0 {
		limit = defaultExceptionPageSize
	}
	afterSeq := -1
	if nextToken != nil && *nextToken != "" {
		seq, err := pagination.DecodeSeqToken(*nextToken, batchID)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error())
		}
		afterSeq = seq
	}

	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recon_batches WHERE batch_id = $1);`, batchID).Scan(&exists); err != nil {
		return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to look up batch", err)
	}
	if !exists {
		return nil, nil, apperrors.NewNotFoundError("batch " + batchID + " not found")
	}

	// Fetch one extra row to learn whether another page exists
	query := `
		SELECT exception_id, batch_id, seq, match_id, break_type, severity, sub_reason,
		       detail, diffs, impact, currency, reporting_impact, reporting_currency,
		       confidence, status, transactions, annotation, created_at
		FROM recon_exceptions
		WHERE batch_id = $1 AND seq > $2
		ORDER BY seq
		LIMIT $3;
	`
	rows, err := r.Pool.Query(ctx, query, batchID, afterSeq, limit+1)
	if err != nil {
		return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to list exceptions", err)
	}
	defer rows.Close()

	modelExceptions := []models.Exception{}
	for rows.Next() {
		var m models.Exception
		err := rows.Scan(
			&m.ExceptionID, &m.BatchID, &m.Seq, &m.MatchID, &m.BreakType, &m.Severity, &m.SubReason,
			&m.Detail, &m.Diffs, &m.Impact, &m.Currency, &m.ReportingImpact, &m.ReportingCurrency,
			&m.Confidence, &m.Status, &m.Transactions, &m.Annotation, &m.CreatedAt,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan exception", err)
		}
		modelExceptions = append(modelExceptions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "error iterating exceptions", err)
	}

	var newNextToken *string
	if len(modelExceptions) > limit {
		modelExceptions = modelExceptions[:limit]
		token := pagination.EncodeSeqToken(batchID, modelExceptions[limit-1].Seq)
		newNextToken = &token
	}

	exceptions := make([]domain.Exception, 0, len(modelExceptions))
	for _, m := range modelExceptions {
		exc, err := mapping.ToDomainException(m)
		if err != nil {
			return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to decode exception "+m.ExceptionID, err)
		}
		exceptions = append(exceptions, exc)
	}
	return exceptions, newNextToken, nil
}
