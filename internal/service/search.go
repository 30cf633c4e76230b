package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/geo"
	"doorstep/internal/repository"
)

// DefaultSearchRadiusKm applies when a request carries no radius.
const DefaultSearchRadiusKm = 25.0

// Ranking weights.
const (
	proximityWeight    = 0.45
	ratingWeight       = 0.25
	experienceWeight   = 0.15
	availabilityWeight = 0.15

	proximityOffsetKm = 0.5
	experienceCapJobs = 500.0
	maxRating         = 5.0
)

// SearchRequest contains the parameters of a mechanic search.
type SearchRequest struct {
	Lat         float64
	Lng         float64
	VehicleType string
	ServiceID   string  // Optional: restricts to mechanics with the service's skills
	RadiusKm    float64 // Optional: 0 uses the default
}

// ScoreBreakdown holds the weighted terms that add up to a score.
type ScoreBreakdown struct {
	Proximity    float64
	Rating       float64
	Experience   float64
	Availability float64
}

// Total sums the terms.
func (b ScoreBreakdown) Total() float64 {
	return b.Proximity + b.Rating + b.Experience + b.Availability
}

// RankedMechanic is one search hit.
type RankedMechanic struct {
	Mechanic   *domain.Mechanic
	DistanceKm float64
	Score      float64
	Breakdown  ScoreBreakdown
}

// ScoreMechanic computes the ranking terms for a mechanic at distanceKm.
func ScoreMechanic(m *domain.Mechanic, distanceKm float64, now time.Time) ScoreBreakdown {
	b := ScoreBreakdown{
		Proximity:  proximityWeight / (distanceKm + proximityOffsetKm),
		Rating:     ratingWeight * m.Rating / maxRating,
		Experience: experienceWeight * math.Min(float64(m.JobsDone)/experienceCapJobs, 1),
	}
	if m.HasUpcomingSlot(now) {
		b.Availability = availabilityWeight
	}
	return b
}

// SearchService ranks mechanics for a customer location.
type SearchService struct {
	directory       *DirectoryService
	catalogRepo     repository.CatalogRepository
	defaultRadiusKm float64
	now             func() time.Time
	logger          *zap.Logger
}

// NewSearchService creates a new SearchService.
// A non-positive defaultRadiusKm falls back to DefaultSearchRadiusKm.
func NewSearchService(
	directory *DirectoryService,
	catalogRepo repository.CatalogRepository,
	defaultRadiusKm float64,
	logger *zap.Logger,
) *SearchService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultSearchRadiusKm
	}
	return &SearchService{
		directory:       directory,
		catalogRepo:     catalogRepo,
		defaultRadiusKm: defaultRadiusKm,
		now:             time.Now,
		logger:          logger,
	}
}

// Search returns the active mechanics within the radius, best first.
// Unknown vehicle types and service ids give an empty result, not an error.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]RankedMechanic, error) {
	vehicleType, ok := domain.ParseVehicleType(req.VehicleType)
	if !ok {
		return []RankedMechanic{}, nil
	}

	var requiredSkills []string
	if req.ServiceID != "" {
		svc, err := s.catalogRepo.GetByID(ctx, req.ServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return []RankedMechanic{}, nil
			}
			return nil, fmt.Errorf("get service %s: %w", req.ServiceID, err)
		}
		if svc.VehicleType != vehicleType {
			return []RankedMechanic{}, nil
		}
		requiredSkills = svc.RequiredSkills
	}

	radiusKm := req.RadiusKm
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	candidates, err := s.directory.Candidates(ctx, req.Lat, req.Lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("load mechanics: %w", err)
	}

	now := s.now()
	results := make([]RankedMechanic, 0, len(candidates))
	for _, m := range candidates {
		if !m.IsActive || !m.HasSkills(requiredSkills) {
			continue
		}

		distance := geo.DistanceKm(req.Lat, req.Lng, m.Lat, m.Lng)
		if !(distance <= radiusKm) {
			continue
		}

		breakdown := ScoreMechanic(m, distance, now)
		results = append(results, RankedMechanic{
			Mechanic:   m,
			DistanceKm: distance,
			Score:      breakdown.Total(),
			Breakdown:  breakdown,
		})
	}

	sortRanked(results)

	s.logger.Debug("mechanic search",
		zap.String("vehicle_type", string(vehicleType)),
		zap.String("service_id", req.ServiceID),
		zap.Float64("radius_km", radiusKm),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// sortRanked orders by score, then distance, then mechanic ID.
func sortRanked(results []RankedMechanic) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Mechanic.ID < b.Mechanic.ID
	})
}
