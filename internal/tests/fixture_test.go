package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/redis"
	"doorstep/internal/repository/memory"
	"doorstep/internal/service"
)

// Connaught Place, Delhi.
const (
	customerLat = 28.6139
	customerLng = 77.2090
)

var serviceCities = []string{"delhi", "new_delhi", "noida", "gurgaon", "gurugram", "ghaziabad", "faridabad"}

type fixtureOptions struct {
	locationStore redis.LocationStoreInterface
	cacheStore    redis.CacheStoreInterface
	lockStore     redis.LockStoreInterface
	publisher     service.Publisher
	policy        service.LeadPolicy
}

type fixture struct {
	mechanics *memory.MechanicRepository
	catalog   *memory.CatalogRepository
	leads     *memory.LeadRepository

	directory *service.DirectoryService
	search    *service.SearchService
	leadSvc   *service.LeadService
	tracking  *service.TrackingService
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	logger := zap.NewNop()

	f := &fixture{
		mechanics: memory.NewMechanicRepository(),
		catalog:   memory.NewCatalogRepository(),
		leads:     memory.NewLeadRepository(),
	}

	publisher := opts.publisher
	if publisher == nil {
		publisher = service.NewLogPublisher(logger)
	}

	f.directory = service.NewDirectoryService(f.mechanics, opts.locationStore, opts.cacheStore, logger)
	f.search = service.NewSearchService(f.directory, f.catalog, service.DefaultSearchRadiusKm, logger)
	f.leadSvc = service.NewLeadService(
		f.leads,
		f.catalog,
		f.directory,
		service.NewServiceArea(serviceCities),
		service.NewNotificationService(publisher, logger),
		opts.lockStore,
		opts.policy,
		logger,
	)
	f.tracking = service.NewTrackingService(f.leadSvc, f.leads)

	for _, svc := range []*domain.Service{
		{ID: "bike-general-service", Name: "Bike General Service", VehicleType: domain.VehicleTypeBike, Category: domain.ServiceCategoryMaintenance, BasePrice: 499, DurationMinutes: 60, RequiredSkills: []string{"general_service"}},
		{ID: "bike-brake-service", Name: "Bike Brake Service", VehicleType: domain.VehicleTypeBike, Category: domain.ServiceCategoryRepair, BasePrice: 299, DurationMinutes: 45, RequiredSkills: []string{"brake_service"}},
		{ID: "car-oil-change", Name: "Car Oil Change", VehicleType: domain.VehicleTypeCar, Category: domain.ServiceCategoryMaintenance, BasePrice: 1499, DurationMinutes: 90, RequiredSkills: []string{"oil_change"}},
	} {
		require.NoError(t, f.catalog.Upsert(context.Background(), svc))
	}

	return f
}

// addMechanic stores an active mechanic with one open slot tomorrow.
func (f *fixture) addMechanic(t *testing.T, id string, lat, lng float64, mutate ...func(*domain.Mechanic)) *domain.Mechanic {
	t.Helper()
	m := &domain.Mechanic{
		ID:              id,
		Name:            "Mechanic " + id,
		Phone:           "9000000000",
		Lat:             lat,
		Lng:             lng,
		City:            "delhi",
		Skills:          []string{"general_service", "brake_service"},
		Rating:          4.8,
		JobsDone:        250,
		ServiceRadiusKm: 15,
		IsActive:        true,
		AvailableSlots:  []time.Time{time.Now().Add(24 * time.Hour)},
		CreatedAt:       time.Now(),
	}
	for _, fn := range mutate {
		fn(m)
	}
	require.NoError(t, f.mechanics.Upsert(context.Background(), m))
	return m
}

func validLeadRequest(phone string) service.CreateLeadRequest {
	return service.CreateLeadRequest{
		CustomerName:  "Asha Verma",
		CustomerPhone: phone,
		Address:       "12 Janpath Road",
		City:          "Delhi",
		VehicleType:   "bike",
		VehicleBrand:  "Honda",
		VehicleModel:  "Activa 6G",
		ServiceID:     "bike-general-service",
		SlotStart:     time.Now().Add(24 * time.Hour).Truncate(time.Hour),
	}
}
