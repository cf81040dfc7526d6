package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
	"github.com/SscSPs/recon_engine/internal/utils"
)

// referenceRateServiceImpl implements the ReferenceRateSvcFacade interface
type referenceRateServiceImpl struct {
	BaseService
	rateRepo portsrepo.ReferenceRateRepositoryFacade
}

// NewReferenceRateService creates a new reference rate service.
func NewReferenceRateService(rateRepo portsrepo.ReferenceRateRepositoryFacade, logger *slog.Logger) portssvc.ReferenceRateSvcFacade {
	return &referenceRateServiceImpl{
		BaseService: BaseService{Logger: logger},
		rateRepo:    rateRepo,
	}
}

// Ensure referenceRateServiceImpl implements the ReferenceRateSvcFacade interface
var _ portssvc.ReferenceRateSvcFacade = (*referenceRateServiceImpl)(nil)

func (s *referenceRateServiceImpl) SaveReferenceRate(ctx context.Context, rate domain.ReferenceRate) (*domain.ReferenceRate, error) {
	rate.FromCurrency = strings.ToUpper(strings.TrimSpace(rate.FromCurrency))
	rate.ToCurrency = strings.ToUpper(strings.TrimSpace(rate.ToCurrency))

	if !utils.IsKnownCurrency(rate.FromCurrency) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("'from' currency code '%s' is not an ISO 4217 code", rate.FromCurrency))
	}
	if !utils.IsKnownCurrency(rate.ToCurrency) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("'to' currency code '%s' is not an ISO 4217 code", rate.ToCurrency))
	}
	if rate.FromCurrency == rate.ToCurrency {
		return nil, apperrors.NewValidationError("from and to currency codes cannot be the same")
	}
	if !rate.Rate.IsPositive() {
		return nil, apperrors.NewValidationError("reference rate must be positive")
	}
	if rate.DateEffective.IsZero() {
		return nil, apperrors.NewValidationError("date effective is required")
	}
	y, m, d := rate.DateEffective.Date()
	rate.DateEffective = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if err := s.rateRepo.SaveReferenceRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to save reference rate",
			slog.String("from", rate.FromCurrency),
			slog.String("to", rate.ToCurrency))
		return nil, fmt.Errorf("failed to save reference rate: %w", err)
	}

	s.LogInfo(ctx, "Reference rate saved",
		slog.String("from", rate.FromCurrency),
		slog.String("to", rate.ToCurrency),
		slog.Time("date_effective", rate.DateEffective))
	return &rate, nil
}

func (s *referenceRateServiceImpl) ListReferenceRates(ctx context.Context, date time.Time) ([]domain.ReferenceRate, error) {
	if date.IsZero() {
		return nil, apperrors.NewValidationError("date is required")
	}
	rates, err := s.rateRepo.FindRatesOn(ctx, date)
	if err != nil {
		s.LogError(ctx, err, "Failed to list reference rates", slog.Time("date", date))
		return nil, fmt.Errorf("failed to list reference rates: %w", err)
	}
	return rates, nil
}
