package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/redis"
	"doorstep/internal/repository"
)

// geoSlackKm widens the Redis prefilter so rounding in the geohash index
// never drops a mechanic the exact haversine check would keep.
const geoSlackKm = 1.0

// DirectoryService exposes the mechanic directory. The Redis geo index and
// profile cache are optional; both are nil when Redis is disabled.
type DirectoryService struct {
	mechanicRepo  repository.MechanicRepository
	locationStore redis.LocationStoreInterface
	cacheStore    redis.CacheStoreInterface
	logger        *zap.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(
	mechanicRepo repository.MechanicRepository,
	locationStore redis.LocationStoreInterface,
	cacheStore redis.CacheStoreInterface,
	logger *zap.Logger,
) *DirectoryService {
	return &DirectoryService{
		mechanicRepo:  mechanicRepo,
		locationStore: locationStore,
		cacheStore:    cacheStore,
		logger:        logger,
	}
}

// ListAll returns every mechanic ordered by ID.
func (s *DirectoryService) ListAll(ctx context.Context) ([]*domain.Mechanic, error) {
	return s.mechanicRepo.GetAll(ctx)
}

// ListByCity returns the mechanics based in city, ignoring case.
func (s *DirectoryService) ListByCity(ctx context.Context, city string) ([]*domain.Mechanic, error) {
	return s.mechanicRepo.GetByCity(ctx, city)
}

// GetByID returns a mechanic, reading through the cache when enabled.
func (s *DirectoryService) GetByID(ctx context.Context, id string) (*domain.Mechanic, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetMechanic(ctx, id)
		if err != nil {
			s.logger.Warn("mechanic cache read failed", zap.String("mechanic_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	m, err := s.mechanicRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMechanicNotFound
		}
		return nil, fmt.Errorf("get mechanic %s: %w", id, err)
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetMechanic(ctx, m); err != nil {
			s.logger.Warn("mechanic cache write failed", zap.String("mechanic_id", id), zap.Error(err))
		}
	}
	return m, nil
}

// SetActive toggles whether a mechanic can be found by search.
func (s *DirectoryService) SetActive(ctx context.Context, id string, active bool) (*domain.Mechanic, error) {
	if err := s.mechanicRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMechanicNotFound
		}
		return nil, fmt.Errorf("set mechanic %s active: %w", id, err)
	}
	s.invalidate(ctx, id)

	m, err := s.mechanicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload mechanic %s: %w", id, err)
	}

	if s.locationStore != nil {
		if active {
			err = s.locationStore.IndexMechanic(ctx, m.ID, m.Lat, m.Lng)
		} else {
			err = s.locationStore.RemoveMechanic(ctx, m.ID)
		}
		if err != nil {
			s.logger.Warn("mechanic geo index update failed", zap.String("mechanic_id", id), zap.Error(err))
		}
	}

	s.logger.Info("mechanic availability flag changed", zap.String("mechanic_id", id), zap.Bool("active", active))
	return m, nil
}

// SetAvailability replaces the open slots of a mechanic.
func (s *DirectoryService) SetAvailability(ctx context.Context, id string, slots []time.Time) (*domain.Mechanic, error) {
	if err := s.mechanicRepo.SetAvailability(ctx, id, slots); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMechanicNotFound
		}
		return nil, fmt.Errorf("set mechanic %s slots: %w", id, err)
	}
	s.invalidate(ctx, id)

	m, err := s.mechanicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload mechanic %s: %w", id, err)
	}
	return m, nil
}

// IndexLocations loads every active mechanic into the geo index.
// It is a no-op when Redis is disabled.
func (s *DirectoryService) IndexLocations(ctx context.Context) (int, error) {
	if s.locationStore == nil {
		return 0, nil
	}

	mechanics, err := s.mechanicRepo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mechanics: %w", err)
	}

	indexed := 0
	for _, m := range mechanics {
		if !m.IsActive {
			continue
		}
		if err := s.locationStore.IndexMechanic(ctx, m.ID, m.Lat, m.Lng); err != nil {
			return indexed, fmt.Errorf("index mechanic %s: %w", m.ID, err)
		}
		indexed++
	}
	return indexed, nil
}

// Candidates returns the mechanics that may lie within radiusKm of the
// point. Without a geo index, or when the index fails, it is every mechanic.
func (s *DirectoryService) Candidates(ctx context.Context, lat, lng, radiusKm float64) ([]*domain.Mechanic, error) {
	if s.locationStore == nil {
		return s.mechanicRepo.GetAll(ctx)
	}

	hits, err := s.locationStore.FindNearby(ctx, lat, lng, radiusKm+geoSlackKm)
	if err != nil {
		s.logger.Warn("geo prefilter failed, falling back to full scan", zap.Error(err))
		return s.mechanicRepo.GetAll(ctx)
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.MechanicID
	}
	return s.getMany(ctx, ids)
}

// getMany resolves ids through the batch cache, falling back to the
// repository for misses. IDs no longer in the repository are skipped.
func (s *DirectoryService) getMany(ctx context.Context, ids []string) ([]*domain.Mechanic, error) {
	found := make(map[string]*domain.Mechanic, len(ids))
	missing := ids

	if s.cacheStore != nil {
		cached, miss, err := s.cacheStore.GetMechanicsBatch(ctx, ids)
		if err != nil {
			s.logger.Warn("mechanic cache batch read failed", zap.Error(err))
		} else {
			found = cached
			missing = miss
		}
	}

	var loaded []*domain.Mechanic
	for _, id := range missing {
		m, err := s.mechanicRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get mechanic %s: %w", id, err)
		}
		found[id] = m
		loaded = append(loaded, m)
	}

	if s.cacheStore != nil && len(loaded) > 0 {
		if err := s.cacheStore.SetMechanicsBatch(ctx, loaded); err != nil {
			s.logger.Warn("mechanic cache batch write failed", zap.Error(err))
		}
	}

	result := make([]*domain.Mechanic, 0, len(found))
	for _, id := range ids {
		if m, ok := found[id]; ok {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *DirectoryService) invalidate(ctx context.Context, id string) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateMechanic(ctx, id); err != nil {
		s.logger.Warn("mechanic cache invalidation failed", zap.String("mechanic_id", id), zap.Error(err))
	}
}
