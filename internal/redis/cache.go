package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"doorstep/internal/domain"
)

// MechanicCacheTTL bounds how stale a cached profile may get; admin writes
// invalidate explicitly.
const MechanicCacheTTL = 60 * time.Second

const mechanicCachePrefix = "cache:mechanic:"

// CacheStore handles mechanic profile caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedMechanic is the JSON shape of a cached mechanic.
type CachedMechanic struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Phone           string      `json:"phone"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	City            string      `json:"city"`
	Skills          []string    `json:"skills"`
	Rating          float64     `json:"rating"`
	JobsDone        int         `json:"jobs_done"`
	ServiceRadiusKm float64     `json:"service_radius_km"`
	IsActive        bool        `json:"is_active"`
	AvailableSlots  []time.Time `json:"available_slots"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NewCachedMechanic converts a domain mechanic into its cached form.
func NewCachedMechanic(m *domain.Mechanic) *CachedMechanic {
	return &CachedMechanic{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		Lat:             m.Lat,
		Lng:             m.Lng,
		City:            m.City,
		Skills:          append([]string(nil), m.Skills...),
		Rating:          m.Rating,
		JobsDone:        m.JobsDone,
		ServiceRadiusKm: m.ServiceRadiusKm,
		IsActive:        m.IsActive,
		AvailableSlots:  append([]time.Time(nil), m.AvailableSlots...),
		CreatedAt:       m.CreatedAt,
	}
}

// Mechanic converts the cached form back into a domain mechanic.
func (c *CachedMechanic) Mechanic() *domain.Mechanic {
	return &domain.Mechanic{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		Lat:             c.Lat,
		Lng:             c.Lng,
		City:            c.City,
		Skills:          c.Skills,
		Rating:          c.Rating,
		JobsDone:        c.JobsDone,
		ServiceRadiusKm: c.ServiceRadiusKm,
		IsActive:        c.IsActive,
		AvailableSlots:  c.AvailableSlots,
		CreatedAt:       c.CreatedAt,
	}
}

// GetMechanic retrieves a mechanic from cache. A miss returns nil, nil.
func (s *CacheStore) GetMechanic(ctx context.Context, mechanicID string) (*domain.Mechanic, error) {
	data, err := s.client.Get(ctx, mechanicCachePrefix+mechanicID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedMechanic
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.Mechanic(), nil
}

// SetMechanic stores a mechanic in cache.
func (s *CacheStore) SetMechanic(ctx context.Context, m *domain.Mechanic) error {
	data, err := json.Marshal(NewCachedMechanic(m))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, mechanicCachePrefix+m.ID, data, MechanicCacheTTL).Err()
}

// InvalidateMechanic removes a mechanic from cache.
func (s *CacheStore) InvalidateMechanic(ctx context.Context, mechanicID string) error {
	return s.client.Del(ctx, mechanicCachePrefix+mechanicID).Err()
}

// GetMechanicsBatch retrieves multiple mechanics using a pipeline.
// Returns the hits keyed by ID and the IDs that missed.
func (s *CacheStore) GetMechanicsBatch(ctx context.Context, mechanicIDs []string) (map[string]*domain.Mechanic, []string, error) {
	result := make(map[string]*domain.Mechanic, len(mechanicIDs))
	if len(mechanicIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(mechanicIDs))
	for i, id := range mechanicIDs {
		cmds[i] = pipe.Get(ctx, mechanicCachePrefix+id)
	}

	// Missing keys surface as redis.Nil on the individual commands.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, err
	}

	var missing []string
	for i, cmd := range cmds {
		id := mechanicIDs[i]
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var cached CachedMechanic
		if err := json.Unmarshal(data, &cached); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = cached.Mechanic()
	}

	return result, missing, nil
}

// SetMechanicsBatch stores multiple mechanics using a pipeline.
func (s *CacheStore) SetMechanicsBatch(ctx context.Context, mechanics []*domain.Mechanic) error {
	if len(mechanics) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, m := range mechanics {
		data, err := json.Marshal(NewCachedMechanic(m))
		if err != nil {
			continue
		}
		pipe.Set(ctx, mechanicCachePrefix+m.ID, data, MechanicCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}
