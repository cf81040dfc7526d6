package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
)

// ReferenceRateReader defines read operations for reference FX rates
type ReferenceRateReader interface {
	// FindRatesOn returns every rate effective on the given date.
	FindRatesOn(ctx context.Context, date time.Time) ([]domain.ReferenceRate, error)
}

// ReferenceRateWriter defines write operations for reference FX rates
type ReferenceRateWriter interface {
	// SaveReferenceRate stores a rate, replacing any rate for the same pair and date.
	SaveReferenceRate(ctx context.Context, rate domain.ReferenceRate) error
}

// ReferenceRateRepositoryFacade combines all reference rate repository interfaces
type ReferenceRateRepositoryFacade interface {
	ReferenceRateReader
	ReferenceRateWriter
}
