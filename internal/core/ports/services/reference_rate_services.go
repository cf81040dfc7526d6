package services

import (
	"context"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
)

// ReferenceRateSvcFacade maintains the reference FX rates batches fall back on
type ReferenceRateSvcFacade interface {
	// SaveReferenceRate validates and stores a rate, replacing any rate for the same pair and day.
	SaveReferenceRate(ctx context.Context, rate domain.ReferenceRate) (*domain.ReferenceRate, error)
	// ListReferenceRates returns the rates effective on the day of date.
	ListReferenceRates(ctx context.Context, date time.Time) ([]domain.ReferenceRate, error)
}
