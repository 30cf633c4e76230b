package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

// LeadRepository is an in-memory implementation of repository.LeadRepository.
// A single mutex serializes every write, which makes AdvanceStatus a true
// compare-and-swap.
type LeadRepository struct {
	mu      sync.RWMutex
	leads   map[string]*domain.Lead // by tracking id
	history map[string][]*domain.StatusUpdate
}

// NewLeadRepository creates an empty in-memory lead repository.
func NewLeadRepository() *LeadRepository {
	return &LeadRepository{
		leads:   make(map[string]*domain.Lead),
		history: make(map[string][]*domain.StatusUpdate),
	}
}

// Create persists a new lead together with its first history entry.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead, initial *domain.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leads[lead.TrackingID]; exists {
		return repository.ErrDuplicateTrackingID
	}
	r.leads[lead.TrackingID] = lead.Clone()
	if initial != nil {
		u := *initial
		r.history[lead.ID] = append(r.history[lead.ID], &u)
	}
	return nil
}

// GetByTrackingID retrieves a lead by tracking id.
func (r *LeadRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[trackingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return lead.Clone(), nil
}

// GetAll retrieves all leads, most recent first.
func (r *LeadRepository) GetAll(ctx context.Context) ([]*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		result = append(result, lead.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].TrackingID > result[j].TrackingID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CountByPhoneSince counts leads for phone created at or after since.
func (r *LeadRepository) CountByPhoneSince(ctx context.Context, phone string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, lead := range r.leads {
		if lead.CustomerPhone == phone && !lead.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// SetStatus unconditionally sets the status and appends update.
func (r *LeadRepository) SetStatus(ctx context.Context, trackingID string, update *domain.StatusUpdate, totalAmount *float64) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[trackingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.applyLocked(lead, update, totalAmount), nil
}

// AdvanceStatus sets the status only if the current status equals from.
func (r *LeadRepository) AdvanceStatus(ctx context.Context, trackingID string, from domain.LeadStatus, update *domain.StatusUpdate, totalAmount *float64) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[trackingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if lead.Status != from {
		return nil, repository.ErrStatusConflict
	}
	return r.applyLocked(lead, update, totalAmount), nil
}

// ListStatusUpdates returns the history of a lead, oldest first.
func (r *LeadRepository) ListStatusUpdates(ctx context.Context, leadID string) ([]*domain.StatusUpdate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	updates := r.history[leadID]
	result := make([]*domain.StatusUpdate, 0, len(updates))
	for _, u := range updates {
		c := *u
		result = append(result, &c)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// applyLocked must be called with r.mu held for writing.
func (r *LeadRepository) applyLocked(lead *domain.Lead, update *domain.StatusUpdate, totalAmount *float64) *domain.Lead {
	update.LeadID = lead.ID
	lead.Status = update.Status
	lead.UpdatedAt = update.CreatedAt
	if totalAmount != nil {
		amt := *totalAmount
		lead.TotalAmount = &amt
	}
	u := *update
	r.history[lead.ID] = append(r.history[lead.ID], &u)
	return lead.Clone()
}

var _ repository.LeadRepository = (*LeadRepository)(nil)
