package pgsql

import (
	"context"
	"net/http"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	"github.com/SscSPs/recon_engine/internal/models"
	"github.com/SscSPs/recon_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxReferenceRateRepository implements portsrepo.ReferenceRateRepositoryFacade using pgxpool.
type PgxReferenceRateRepository struct {
	BaseRepository
}

// newPgxReferenceRateRepository creates a new PgxReferenceRateRepository.
func newPgxReferenceRateRepository(db *pgxpool.Pool) portsrepo.ReferenceRateRepositoryFacade {
	return &PgxReferenceRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ReferenceRateRepositoryFacade = (*PgxReferenceRateRepository)(nil)

// SaveReferenceRate inserts a rate or replaces the rate for the same pair and date.
func (r *PgxReferenceRateRepository) SaveReferenceRate(ctx context.Context, rate domain.ReferenceRate) error {
	modelRate := mapping.ToModelReferenceRate(rate)
	if modelRate.FromCurrencyCode == modelRate.ToCurrencyCode {
		return apperrors.NewValidationError("from and to currencies cannot be the same")
	}
	if !modelRate.Rate.IsPositive() {
		return apperrors.NewValidationError("reference rate must be positive")
	}

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO reference_rates (from_currency_code, to_currency_code, rate, date_effective, last_updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (from_currency_code, to_currency_code, date_effective) DO UPDATE SET
			rate = EXCLUDED.rate,
			last_updated_at = EXCLUDED.last_updated_at;`,
		modelRate.FromCurrencyCode, modelRate.ToCurrencyCode, modelRate.Rate, truncateToDate(modelRate.DateEffective),
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to save reference rate", err)
	}
	return nil
}

// FindRatesOn returns every rate effective on the calendar date of date, as
// stored. Inverse pairs are resolved by domain.ReferenceData.
func (r *PgxReferenceRateRepository) FindRatesOn(ctx context.Context, date time.Time) ([]domain.ReferenceRate, error) {
	query := `
		SELECT from_currency_code, to_currency_code, rate, date_effective, last_updated_at
		FROM reference_rates
		WHERE date_effective = $1
		ORDER BY from_currency_code, to_currency_code;
	`
	rows, err := r.Pool.Query(ctx, query, truncateToDate(date))
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query reference rates", err)
	}
	defer rows.Close()

	rates := []domain.ReferenceRate{}
	for rows.Next() {
		var modelRate models.ReferenceRate
		err := rows.Scan(
			&modelRate.FromCurrencyCode, &modelRate.ToCurrencyCode,
			&modelRate.Rate, &modelRate.DateEffective, &modelRate.LastUpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan reference rate", err)
		}
		rates = append(rates, mapping.ToDomainReferenceRate(modelRate))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "error iterating reference rates", err)
	}
	return rates, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
