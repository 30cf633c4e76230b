package memory

import (
	"context"
	"sort"
	"sync"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

// CatalogRepository is an in-memory implementation of repository.CatalogRepository.
type CatalogRepository struct {
	mu       sync.RWMutex
	services map[string]*domain.Service
}

// NewCatalogRepository creates an empty in-memory catalog.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		services: make(map[string]*domain.Service),
	}
}

func (r *CatalogRepository) GetAll(ctx context.Context) ([]*domain.Service, error) {
	return r.filter(func(*domain.Service) bool { return true }), nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *CatalogRepository) GetByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]*domain.Service, error) {
	return r.filter(func(s *domain.Service) bool { return s.VehicleType == vehicleType }), nil
}

func (r *CatalogRepository) Upsert(ctx context.Context, service *domain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[service.ID] = service.Clone()
	return nil
}

func (r *CatalogRepository) filter(keep func(*domain.Service) bool) []*domain.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Service, 0, len(r.services))
	for _, s := range r.services {
		if keep(s) {
			result = append(result, s.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)
