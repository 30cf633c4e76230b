package repository

import (
	"context"

	"doorstep/internal/domain"
)

// CatalogRepository defines read access to the service catalog.
type CatalogRepository interface {
	GetAll(ctx context.Context) ([]*domain.Service, error)
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	GetByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]*domain.Service, error)
	Upsert(ctx context.Context, service *domain.Service) error
}
