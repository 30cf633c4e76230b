package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/geo"
	"doorstep/internal/redis"
)

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of redis.LocationStoreInterface.
// Unlike Redis it filters with the exact haversine distance.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.MechanicLocation

	// Counters
	IndexCallCount      int32
	FindNearbyCallCount int32
	RemoveCallCount     int32

	// Error injection
	IndexError      error
	FindNearbyError error

	// LastRadiusKm is the radius of the latest FindNearby call.
	LastRadiusKm float64
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redis.MechanicLocation),
	}
}

func (m *MockLocationStore) IndexMechanic(ctx context.Context, mechanicID string, lat, lng float64) error {
	atomic.AddInt32(&m.IndexCallCount, 1)
	if m.IndexError != nil {
		return m.IndexError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[mechanicID] = redis.MechanicLocation{MechanicID: mechanicID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]redis.MechanicLocation, error) {
	atomic.AddInt32(&m.FindNearbyCallCount, 1)
	if m.FindNearbyError != nil {
		return nil, m.FindNearbyError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRadiusKm = radiusKm

	var result []redis.MechanicLocation
	for _, loc := range m.locations {
		d := geo.DistanceKm(lat, lng, loc.Lat, loc.Lng)
		if d <= radiusKm {
			loc.DistanceKm = d
			result = append(result, loc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DistanceKm < result[j].DistanceKm })
	return result, nil
}

func (m *MockLocationStore) RemoveMechanic(ctx context.Context, mechanicID string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, mechanicID)
	return nil
}

// HasLocation checks if a mechanic is indexed.
func (m *MockLocationStore) HasLocation(mechanicID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[mechanicID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of redis.LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

type mockLock struct {
	token  string
	expiry time.Time
}

func (m *MockLockStore) AcquireLeadLock(ctx context.Context, trackingID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:lead:" + trackingID
	if held, exists := m.locks[key]; exists {
		if time.Now().Before(held.expiry) {
			return "", false, nil // Lock still held.
		}
	}

	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[key] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

// ReleaseLeadLock deletes the lock only if token still owns it.
func (m *MockLockStore) ReleaseLeadLock(ctx context.Context, trackingID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "lock:lead:" + trackingID
	if held, exists := m.locks[key]; exists && held.token == token {
		delete(m.locks, key)
	}
	return nil
}

// IsLocked checks if a lead is locked (for test assertions).
func (m *MockLockStore) IsLocked(trackingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, exists := m.locks["lock:lead:"+trackingID]
	return exists && time.Now().Before(held.expiry)
}

// Holder returns the token owning a lead lock, or "" (for test assertions).
func (m *MockLockStore) Holder(trackingID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, exists := m.locks["lock:lead:"+trackingID]
	if !exists || !time.Now().Before(held.expiry) {
		return ""
	}
	return held.token
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of redis.CacheStoreInterface.
type MockCacheStore struct {
	mu        sync.RWMutex
	mechanics map[string]*domain.Mechanic

	// Counters
	GetCallCount        int32
	HitCount            int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		mechanics: make(map[string]*domain.Mechanic),
	}
}

func (m *MockCacheStore) GetMechanic(ctx context.Context, mechanicID string) (*domain.Mechanic, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cached, ok := m.mechanics[mechanicID]
	if !ok {
		return nil, nil // Cache miss
	}
	atomic.AddInt32(&m.HitCount, 1)
	return cached.Clone(), nil
}

func (m *MockCacheStore) SetMechanic(ctx context.Context, mechanic *domain.Mechanic) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mechanics[mechanic.ID] = mechanic.Clone()
	return nil
}

func (m *MockCacheStore) InvalidateMechanic(ctx context.Context, mechanicID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mechanics, mechanicID)
	return nil
}

func (m *MockCacheStore) GetMechanicsBatch(ctx context.Context, mechanicIDs []string) (map[string]*domain.Mechanic, []string, error) {
	if m.GetError != nil {
		return nil, nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]*domain.Mechanic, len(mechanicIDs))
	var missing []string
	for _, id := range mechanicIDs {
		if cached, ok := m.mechanics[id]; ok {
			result[id] = cached.Clone()
			atomic.AddInt32(&m.HitCount, 1)
			continue
		}
		missing = append(missing, id)
	}
	return result, missing, nil
}

func (m *MockCacheStore) SetMechanicsBatch(ctx context.Context, mechanics []*domain.Mechanic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mechanic := range mechanics {
		m.mechanics[mechanic.ID] = mechanic.Clone()
	}
	return nil
}

// IsCached reports whether a mechanic is cached (for test assertions).
func (m *MockCacheStore) IsCached(mechanicID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.mechanics[mechanicID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedMessage is one message captured by MockPublisher.
type PublishedMessage struct {
	RoutingKey string
	Body       []byte
}

// MockPublisher is a mock implementation of service.Publisher.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.messages = append(m.messages, PublishedMessage{RoutingKey: routingKey, Body: append([]byte(nil), body...)})
	return nil
}

// Messages returns the captured messages.
func (m *MockPublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.messages...)
}

// RoutingKeys returns the routing keys of the captured messages in order.
func (m *MockPublisher) RoutingKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.messages))
	for i, msg := range m.messages {
		keys[i] = msg.RoutingKey
	}
	return keys
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockRedisDown  = errors.New("mock: redis unavailable")
	ErrMockBrokerDown = errors.New("mock: broker unavailable")
)
