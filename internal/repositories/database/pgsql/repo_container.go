package pgsql

import (
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ResultRepo:        newPgxResultRepository(dbPool),
		ReferenceRateRepo: newPgxReferenceRateRepository(dbPool),
	}
}
