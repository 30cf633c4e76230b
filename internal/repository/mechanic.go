package repository

import (
	"context"
	"time"

	"doorstep/internal/domain"
)

// MechanicRepository defines the persistence operations for mechanics.
type MechanicRepository interface {
	// GetAll retrieves all mechanics, active or not.
	GetAll(ctx context.Context) ([]*domain.Mechanic, error)

	// GetByID retrieves a mechanic by ID.
	GetByID(ctx context.Context, id string) (*domain.Mechanic, error)

	// GetByCity retrieves mechanics whose home city matches (case-insensitive).
	GetByCity(ctx context.Context, city string) ([]*domain.Mechanic, error)

	// Upsert creates or replaces a mechanic record.
	Upsert(ctx context.Context, mechanic *domain.Mechanic) error

	// SetActive toggles the active flag of a mechanic.
	SetActive(ctx context.Context, id string, active bool) error

	// SetAvailability replaces the open slots of a mechanic.
	SetAvailability(ctx context.Context, id string, slots []time.Time) error
}
