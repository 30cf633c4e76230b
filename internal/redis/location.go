package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const mechanicLocationKey = "mechanics:locations"

// MechanicLocation is a geo index hit.
type MechanicLocation struct {
	MechanicID string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore keeps the mechanic geo index in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// IndexMechanic stores a mechanic's base location using GEOADD.
func (s *LocationStore) IndexMechanic(ctx context.Context, mechanicID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, mechanicLocationKey, &redis.GeoLocation{
		Name:      mechanicID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearby returns mechanics within radiusKm of the point, nearest first.
func (s *LocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]MechanicLocation, error) {
	results, err := s.client.GeoSearchLocation(ctx, mechanicLocationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]MechanicLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, MechanicLocation{
			MechanicID: r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}

	return locations, nil
}

// RemoveMechanic removes a mechanic from the geo index.
func (s *LocationStore) RemoveMechanic(ctx context.Context, mechanicID string) error {
	return s.client.ZRem(ctx, mechanicLocationKey, mechanicID).Err()
}
