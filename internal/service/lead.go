package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/geo"
	"doorstep/internal/redis"
	"doorstep/internal/repository"
)

const (
	maxTrackingIDAttempts = 5
	defaultSlotDuration   = time.Hour
	maxNameLength         = 100
	maxAddressLength      = 500
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// LeadPolicy holds the tunables of lead intake.
type LeadPolicy struct {
	RateLimitMax     int           // leads allowed per phone within RateLimitWindow
	RateLimitWindow  time.Duration // trailing window of the rate limit
	TrackingIDPrefix string
	LockTTL          time.Duration // lifetime of the per-lead progress lock
}

// DefaultLeadPolicy returns the production defaults.
func DefaultLeadPolicy() LeadPolicy {
	return LeadPolicy{
		RateLimitMax:     3,
		RateLimitWindow:  time.Hour,
		TrackingIDPrefix: "GW",
		LockTTL:          10 * time.Second,
	}
}

// CreateLeadRequest contains a booking as submitted by a customer.
type CreateLeadRequest struct {
	CustomerName  string
	CustomerPhone string
	Address       string
	City          string
	Lat           *float64 // Optional, together with Lng
	Lng           *float64
	VehicleType   string
	VehicleBrand  string
	VehicleModel  string
	ServiceID     string // Optional
	MechanicID    string // Optional
	SlotStart     time.Time
	SlotEnd       time.Time // Optional: derived from the service duration
}

// LeadWithMechanic is a lead joined with its assigned mechanic, if any.
type LeadWithMechanic struct {
	Lead     *domain.Lead
	Mechanic *domain.Mechanic
}

// LeadService handles booking intake and status progression.
type LeadService struct {
	leadRepo      repository.LeadRepository
	catalogRepo   repository.CatalogRepository
	directory     *DirectoryService
	area          *ServiceArea
	notifications *NotificationService
	lockStore     redis.LockStoreInterface
	policy        LeadPolicy
	logger        *zap.Logger

	now           func() time.Time
	newTrackingID func() string
}

// NewLeadService creates a new LeadService. lockStore may be nil.
func NewLeadService(
	leadRepo repository.LeadRepository,
	catalogRepo repository.CatalogRepository,
	directory *DirectoryService,
	area *ServiceArea,
	notifications *NotificationService,
	lockStore redis.LockStoreInterface,
	policy LeadPolicy,
	logger *zap.Logger,
) *LeadService {
	defaults := DefaultLeadPolicy()
	if policy.RateLimitMax <= 0 {
		policy.RateLimitMax = defaults.RateLimitMax
	}
	if policy.RateLimitWindow <= 0 {
		policy.RateLimitWindow = defaults.RateLimitWindow
	}
	if policy.TrackingIDPrefix == "" {
		policy.TrackingIDPrefix = defaults.TrackingIDPrefix
	}
	if policy.LockTTL <= 0 {
		policy.LockTTL = defaults.LockTTL
	}

	s := &LeadService{
		leadRepo:      leadRepo,
		catalogRepo:   catalogRepo,
		directory:     directory,
		area:          area,
		notifications: notifications,
		lockStore:     lockStore,
		policy:        policy,
		logger:        logger,
		now:           time.Now,
	}
	s.newTrackingID = func() string { return NewTrackingID(s.policy.TrackingIDPrefix) }
	return s
}

// NewTrackingID returns prefix followed by 8 random upper-case hex digits.
func NewTrackingID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(hex[:8])
}

// NormalizePhone strips formatting characters from a phone number and reduces
// Indian numbers to their 10-digit national form, so "+91 98765 43210",
// "919876543210", "09876543210" and "9876543210" share one rate limit key.
func NormalizePhone(phone string) string {
	out := stripPhoneFormatting(phone)
	digits := strings.TrimPrefix(out, "+")
	if !allDigits(digits) {
		return out
	}
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, indiaCountryCode):
		return digits[len(indiaCountryCode):]
	case len(digits) == 11 && digits[0] == '0' && out[0] != '+':
		return digits[1:]
	}
	return out
}

const indiaCountryCode = "91"

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stripPhoneFormatting(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			// Keep anything else so validation rejects it.
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CreateLead validates and stores a booking with status confirmed.
// Checks run in order: payload validation, service area, rate limit.
func (s *LeadService) CreateLead(ctx context.Context, req CreateLeadRequest) (*domain.Lead, error) {
	lead, err := s.buildLead(ctx, req)
	if err != nil {
		return nil, err
	}

	if !s.area.Contains(lead.City) {
		s.logger.Info("lead rejected: out of area", zap.String("city", lead.City))
		return nil, ErrOutOfArea
	}

	// Best-effort: concurrent submissions may both pass the count.
	since := s.now().Add(-s.policy.RateLimitWindow)
	recent, err := s.leadRepo.CountByPhoneSince(ctx, lead.CustomerPhone, since)
	if err != nil {
		return nil, fmt.Errorf("count recent leads: %w", err)
	}
	if recent >= s.policy.RateLimitMax {
		s.logger.Info("lead rejected: rate limited", zap.Int("recent", recent))
		return nil, ErrRateLimited
	}

	now := s.now()
	lead.ID = uuid.NewString()
	lead.Status = domain.LeadStatusConfirmed
	lead.CreatedAt = now
	lead.UpdatedAt = now

	initial := &domain.StatusUpdate{
		ID:        uuid.NewString(),
		LeadID:    lead.ID,
		Status:    domain.LeadStatusConfirmed,
		Message:   domain.LeadStatusConfirmed.Message(),
		CreatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		lead.TrackingID = s.newTrackingID()
		err = s.leadRepo.Create(ctx, lead, initial)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateTrackingID) {
			return nil, fmt.Errorf("create lead: %w", err)
		}
		if attempt == maxTrackingIDAttempts {
			return nil, ErrTrackingIDExhausted
		}
		s.logger.Warn("tracking id collision, retrying", zap.String("tracking_id", lead.TrackingID))
	}

	s.logger.Info("lead created",
		zap.String("tracking_id", lead.TrackingID),
		zap.String("city", lead.City),
		zap.String("service_id", lead.ServiceID),
		zap.String("mechanic_id", lead.MechanicID),
	)
	s.notifications.NotifyLeadCreated(ctx, lead, initial.Message)
	return lead.Clone(), nil
}

// buildLead normalises the request and collects every field problem.
func (s *LeadService) buildLead(ctx context.Context, req CreateLeadRequest) (*domain.Lead, error) {
	verr := NewValidationError()

	lead := &domain.Lead{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: NormalizePhone(req.CustomerPhone),
		Address:       strings.TrimSpace(req.Address),
		City:          normalizeCity(req.City),
		VehicleBrand:  strings.TrimSpace(req.VehicleBrand),
		VehicleModel:  strings.TrimSpace(req.VehicleModel),
		ServiceID:     strings.TrimSpace(req.ServiceID),
		MechanicID:    strings.TrimSpace(req.MechanicID),
		SlotStart:     req.SlotStart,
		SlotEnd:       req.SlotEnd,
	}

	switch {
	case lead.CustomerName == "":
		verr.Add("customerName", "is required")
	case len(lead.CustomerName) > maxNameLength:
		verr.Add("customerName", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	if lead.CustomerPhone == "" {
		verr.Add("customerPhone", "is required")
	} else if !phonePattern.MatchString(lead.CustomerPhone) {
		verr.Add("customerPhone", "must contain 10 to 15 digits")
	}

	switch {
	case lead.Address == "":
		verr.Add("address", "is required")
	case len(lead.Address) > maxAddressLength:
		verr.Add("address", fmt.Sprintf("must be at most %d characters", maxAddressLength))
	}

	if lead.City == "" {
		verr.Add("city", "is required")
	}

	vehicleType, ok := domain.ParseVehicleType(req.VehicleType)
	if !ok {
		verr.Add("vehicleType", "must be bike or car")
	}
	lead.VehicleType = vehicleType

	if lead.VehicleBrand == "" {
		verr.Add("vehicleBrand", "is required")
	}
	if lead.VehicleModel == "" {
		verr.Add("vehicleModel", "is required")
	}

	switch {
	case req.Lat == nil && req.Lng == nil:
	case req.Lat == nil || req.Lng == nil:
		verr.Add("location", "lat and lng must be given together")
	case !geo.ValidLatitude(*req.Lat):
		verr.Add("lat", "must be between -90 and 90")
	case !geo.ValidLongitude(*req.Lng):
		verr.Add("lng", "must be between -180 and 180")
	default:
		lead.Location = &domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}

	slotDuration := defaultSlotDuration
	if lead.ServiceID != "" {
		svc, err := s.catalogRepo.GetByID(ctx, lead.ServiceID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			verr.Add("serviceId", "unknown service")
		case err != nil:
			return nil, fmt.Errorf("get service %s: %w", lead.ServiceID, err)
		case ok && svc.VehicleType != vehicleType:
			verr.Add("serviceId", fmt.Sprintf("service is not available for %s", vehicleType))
		case svc.DurationMinutes > 0:
			slotDuration = time.Duration(svc.DurationMinutes) * time.Minute
		}
	}

	if lead.MechanicID != "" {
		m, err := s.directory.GetByID(ctx, lead.MechanicID)
		switch {
		case errors.Is(err, ErrMechanicNotFound):
			verr.Add("mechanicId", "unknown mechanic")
		case err != nil:
			return nil, err
		case !m.IsActive:
			verr.Add("mechanicId", "mechanic is not accepting bookings")
		}
	}

	switch {
	case lead.SlotStart.IsZero():
		verr.Add("slotStart", "is required")
	case lead.SlotEnd.IsZero():
		lead.SlotEnd = lead.SlotStart.Add(slotDuration)
	case !lead.SlotEnd.After(lead.SlotStart):
		verr.Add("slotEnd", "must be after slotStart")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return lead, nil
}

// GetByTrackingID returns a lead by its tracking id.
func (s *LeadService) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Lead, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, ErrLeadNotFound
	}

	lead, err := s.leadRepo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("get lead %s: %w", trackingID, err)
	}
	return lead, nil
}

// ListLeads returns every lead, most recent first, with its mechanic.
func (s *LeadService) ListLeads(ctx context.Context) ([]LeadWithMechanic, error) {
	leads, err := s.leadRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	mechanics := make(map[string]*domain.Mechanic)
	result := make([]LeadWithMechanic, 0, len(leads))
	for _, lead := range leads {
		entry := LeadWithMechanic{Lead: lead}
		if lead.MechanicID != "" {
			m, seen := mechanics[lead.MechanicID]
			if !seen {
				m, err = s.resolveMechanic(ctx, lead.MechanicID)
				if err != nil {
					return nil, err
				}
				mechanics[lead.MechanicID] = m
			}
			entry.Mechanic = m
		}
		result = append(result, entry)
	}
	return result, nil
}

// ProgressStatus advances a lead one step along the fixed progression and
// returns the resulting status. A completed lead is left untouched.
func (s *LeadService) ProgressStatus(ctx context.Context, trackingID string) (domain.LeadStatus, error) {
	if s.lockStore != nil {
		token, locked, err := s.lockStore.AcquireLeadLock(ctx, trackingID, s.policy.LockTTL)
		if err != nil {
			return "", fmt.Errorf("acquire lead lock: %w", err)
		}
		if !locked {
			return "", ErrProgressConflict
		}
		defer func() {
			if err := s.lockStore.ReleaseLeadLock(ctx, trackingID, token); err != nil {
				s.logger.Warn("release lead lock failed", zap.String("tracking_id", trackingID), zap.Error(err))
			}
		}()
	}

	lead, err := s.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return "", err
	}

	if lead.Status.Terminal() {
		return lead.Status, nil
	}

	next, err := lead.Status.Next()
	if err != nil {
		return "", fmt.Errorf("lead %s has status %q: %w", trackingID, lead.Status, err)
	}

	amount, err := s.completionAmount(ctx, lead, next)
	if err != nil {
		return "", err
	}

	update := s.newStatusUpdate(next, "")
	updated, err := s.leadRepo.AdvanceStatus(ctx, lead.TrackingID, lead.Status, update, amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return "", fmt.Errorf("%w: %v", ErrProgressConflict, err)
		case errors.Is(err, repository.ErrNotFound):
			return "", ErrLeadNotFound
		}
		return "", fmt.Errorf("advance lead %s: %w", trackingID, err)
	}

	s.logger.Info("lead status advanced",
		zap.String("tracking_id", updated.TrackingID),
		zap.String("from", string(lead.Status)),
		zap.String("to", string(updated.Status)),
	)
	s.notifications.NotifyStatusChanged(ctx, updated, update)
	return updated.Status, nil
}

// UpdateStatus sets any valid status, bypassing the progression. It is an
// operator override; the history entry is appended in the same write.
func (s *LeadService) UpdateStatus(ctx context.Context, trackingID, status, message string) (*domain.Lead, error) {
	target, err := domain.ParseLeadStatus(status)
	if err != nil {
		verr := NewValidationError()
		verr.Add("status", "must be one of confirmed, assigned, on_the_way, in_progress, completed")
		return nil, verr
	}

	lead, err := s.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	amount, err := s.completionAmount(ctx, lead, target)
	if err != nil {
		return nil, err
	}

	update := s.newStatusUpdate(target, message)
	updated, err := s.leadRepo.SetStatus(ctx, lead.TrackingID, update, amount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("set lead %s status: %w", trackingID, err)
	}

	s.logger.Info("lead status overridden",
		zap.String("tracking_id", updated.TrackingID),
		zap.String("from", string(lead.Status)),
		zap.String("to", string(updated.Status)),
	)
	s.notifications.NotifyStatusChanged(ctx, updated, update)
	return updated, nil
}

func (s *LeadService) newStatusUpdate(status domain.LeadStatus, message string) *domain.StatusUpdate {
	message = strings.TrimSpace(message)
	if message == "" {
		message = status.Message()
	}
	return &domain.StatusUpdate{
		ID:        uuid.NewString(),
		Status:    status,
		Message:   message,
		CreatedAt: s.now(),
	}
}

// completionAmount prices a lead reaching completed from its service.
// It returns nil for any other status or when no service is attached.
func (s *LeadService) completionAmount(ctx context.Context, lead *domain.Lead, target domain.LeadStatus) (*float64, error) {
	if target != domain.LeadStatusCompleted || lead.ServiceID == "" {
		return nil, nil
	}

	svc, err := s.catalogRepo.GetByID(ctx, lead.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service %s: %w", lead.ServiceID, err)
	}

	amount := svc.BasePrice
	return &amount, nil
}

// resolveMechanic returns nil for a mechanic that no longer exists.
func (s *LeadService) resolveMechanic(ctx context.Context, id string) (*domain.Mechanic, error) {
	m, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMechanicNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
