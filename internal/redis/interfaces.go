package redis

import (
	"context"
	"time"

	"doorstep/internal/domain"
)

// LocationStoreInterface defines the mechanic geo index operations.
type LocationStoreInterface interface {
	IndexMechanic(ctx context.Context, mechanicID string, lat, lng float64) error
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]MechanicLocation, error)
	RemoveMechanic(ctx context.Context, mechanicID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireLeadLock(ctx context.Context, trackingID string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLeadLock(ctx context.Context, trackingID, token string) error
}

// CacheStoreInterface defines the mechanic cache operations.
type CacheStoreInterface interface {
	GetMechanic(ctx context.Context, mechanicID string) (*domain.Mechanic, error)
	SetMechanic(ctx context.Context, m *domain.Mechanic) error
	InvalidateMechanic(ctx context.Context, mechanicID string) error
	GetMechanicsBatch(ctx context.Context, mechanicIDs []string) (map[string]*domain.Mechanic, []string, error)
	SetMechanicsBatch(ctx context.Context, mechanics []*domain.Mechanic) error
}

// IdempotencyStoreInterface defines storage for replayable responses.
type IdempotencyStoreInterface interface {
	GetResponse(ctx context.Context, key string) ([]byte, bool, error)
	SetResponse(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface    = (*LocationStore)(nil)
	_ LockStoreInterface        = (*LockStore)(nil)
	_ CacheStoreInterface       = (*CacheStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
