package services

import (
	"log/slog"

	"github.com/SscSPs/recon_engine/internal/core/engine"
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// repos may be nil, in which case results are computed but not stored.
func NewServiceContainer(eng *engine.Engine, logger *slog.Logger, repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	options := []ReconciliationOption{WithServiceLogger(logger)}
	container := &portssvc.ServiceContainer{}
	if repos != nil {
		options = append(options,
			WithResultRepository(repos.ResultRepo),
			WithReferenceRateReader(repos.ReferenceRateRepo),
		)
		container.ReferenceRate = NewReferenceRateService(repos.ReferenceRateRepo, logger)
	}

	container.Reconciliation = NewReconciliationService(eng, options...)
	return container
}
