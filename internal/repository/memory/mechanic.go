// Package memory provides in-process implementations of the repository
// interfaces. They are the reference storage adapter.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

// MechanicRepository is an in-memory implementation of repository.MechanicRepository.
type MechanicRepository struct {
	mu        sync.RWMutex
	mechanics map[string]*domain.Mechanic
}

// NewMechanicRepository creates an empty in-memory mechanic repository.
func NewMechanicRepository() *MechanicRepository {
	return &MechanicRepository{
		mechanics: make(map[string]*domain.Mechanic),
	}
}

// GetAll retrieves all mechanics ordered by ID.
func (r *MechanicRepository) GetAll(ctx context.Context) ([]*domain.Mechanic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Mechanic, 0, len(r.mechanics))
	for _, m := range r.mechanics {
		result = append(result, m.Clone())
	}
	sortMechanics(result)
	return result, nil
}

// GetByID retrieves a mechanic by ID.
func (r *MechanicRepository) GetByID(ctx context.Context, id string) (*domain.Mechanic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mechanics[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.Clone(), nil
}

// GetByCity retrieves mechanics whose city matches, ignoring case.
func (r *MechanicRepository) GetByCity(ctx context.Context, city string) ([]*domain.Mechanic, error) {
	city = strings.TrimSpace(city)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Mechanic
	for _, m := range r.mechanics {
		if strings.EqualFold(m.City, city) {
			result = append(result, m.Clone())
		}
	}
	sortMechanics(result)
	return result, nil
}

// Upsert creates or replaces a mechanic.
func (r *MechanicRepository) Upsert(ctx context.Context, mechanic *domain.Mechanic) error {
	if err := mechanic.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mechanics[mechanic.ID] = mechanic.Clone()
	return nil
}

// SetActive toggles the active flag of a mechanic.
func (r *MechanicRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.mechanics[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.IsActive = active
	return nil
}

// SetAvailability replaces the open slots of a mechanic.
func (r *MechanicRepository) SetAvailability(ctx context.Context, id string, slots []time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.mechanics[id]
	if !ok {
		return repository.ErrNotFound
	}
	sorted := append([]time.Time(nil), slots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	m.AvailableSlots = sorted
	return nil
}

func sortMechanics(ms []*domain.Mechanic) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}

var _ repository.MechanicRepository = (*MechanicRepository)(nil)
