package service

import (
	"context"
	"fmt"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

// Tracking is the customer-facing view of a booking.
type Tracking struct {
	Lead          *domain.Lead
	StatusUpdates []*domain.StatusUpdate // oldest first
	Mechanic      *domain.Mechanic       // nil when none is assigned or it no longer exists
}

// TrackingService composes a lead with its history and mechanic.
type TrackingService struct {
	leads    *LeadService
	leadRepo repository.LeadRepository
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(leads *LeadService, leadRepo repository.LeadRepository) *TrackingService {
	return &TrackingService{leads: leads, leadRepo: leadRepo}
}

// Get returns the tracking view of trackingID.
func (s *TrackingService) Get(ctx context.Context, trackingID string) (*Tracking, error) {
	lead, err := s.leads.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	updates, err := s.leadRepo.ListStatusUpdates(ctx, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("list status updates: %w", err)
	}
	if updates == nil {
		updates = []*domain.StatusUpdate{}
	}

	tracking := &Tracking{Lead: lead, StatusUpdates: updates}
	if lead.MechanicID != "" {
		tracking.Mechanic, err = s.leads.resolveMechanic(ctx, lead.MechanicID)
		if err != nil {
			return nil, err
		}
	}
	return tracking, nil
}
