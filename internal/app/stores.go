package app

import (
	"database/sql"
	"fmt"

	"doorstep/internal/config"
	"doorstep/internal/repository"
	"doorstep/internal/repository/memory"
	"doorstep/internal/repository/postgres"
)

// Stores groups the repositories of one storage backend.
type Stores struct {
	Mechanics repository.MechanicRepository
	Catalog   repository.CatalogRepository
	Leads     repository.LeadRepository
}

// NewStores builds the repositories for backend. db is only used by the
// postgres backend and must be non-nil there.
func NewStores(backend string, db *sql.DB) (*Stores, error) {
	switch backend {
	case config.StoreMemory:
		return &Stores{
			Mechanics: memory.NewMechanicRepository(),
			Catalog:   memory.NewCatalogRepository(),
			Leads:     memory.NewLeadRepository(),
		}, nil
	case config.StorePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store requires a database connection")
		}
		return &Stores{
			Mechanics: postgres.NewMechanicRepository(db),
			Catalog:   postgres.NewCatalogRepository(db),
			Leads:     postgres.NewLeadRepository(db),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
