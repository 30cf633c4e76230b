package repository

import (
	"context"
	"time"

	"doorstep/internal/domain"
)

// LeadRepository defines the persistence operations for leads and their
// status history. Every write that changes a lead's status appends the
// matching StatusUpdate in the same unit of work.
type LeadRepository interface {
	// Create persists a new lead together with its first history entry.
	// Returns ErrDuplicateTrackingID if the tracking id is taken.
	Create(ctx context.Context, lead *domain.Lead, initial *domain.StatusUpdate) error

	// GetByTrackingID retrieves a lead by its public tracking id.
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Lead, error)

	// GetAll retrieves all leads, most recent first.
	GetAll(ctx context.Context) ([]*domain.Lead, error)

	// CountByPhoneSince counts leads created by phone at or after since.
	CountByPhoneSince(ctx context.Context, phone string, since time.Time) (int, error)

	// SetStatus unconditionally sets the status and appends update.
	SetStatus(ctx context.Context, trackingID string, update *domain.StatusUpdate, totalAmount *float64) (*domain.Lead, error)

	// AdvanceStatus sets the status only if the current status equals from.
	// Returns ErrStatusConflict otherwise.
	AdvanceStatus(ctx context.Context, trackingID string, from domain.LeadStatus, update *domain.StatusUpdate, totalAmount *float64) (*domain.Lead, error)

	// ListStatusUpdates returns the history of a lead, oldest first.
	ListStatusUpdates(ctx context.Context, leadID string) ([]*domain.StatusUpdate, error)
}
