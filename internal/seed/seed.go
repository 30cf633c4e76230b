// Package seed loads the reference service catalog and mechanic pool.
package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

// Services returns the reference catalog.
func Services() []*domain.Service {
	return []*domain.Service{
		{
			ID: "bike-general-service", Name: "Bike General Service", VehicleType: domain.VehicleTypeBike,
			Category: domain.ServiceCategoryMaintenance, Description: "Engine oil top-up, chain lubrication, brake and clutch adjustment, 20-point check.",
			BasePrice: 499, DurationMinutes: 60, RequiredSkills: []string{"general_service"},
		},
		{
			ID: "bike-oil-change", Name: "Bike Engine Oil Change", VehicleType: domain.VehicleTypeBike,
			Category: domain.ServiceCategoryMaintenance, Description: "Drain and refill engine oil, oil filter inspection.",
			BasePrice: 349, DurationMinutes: 30, RequiredSkills: []string{"oil_change"},
		},
		{
			ID: "bike-brake-service", Name: "Bike Brake Service", VehicleType: domain.VehicleTypeBike,
			Category: domain.ServiceCategoryRepair, Description: "Brake pad or shoe replacement and brake fluid check.",
			BasePrice: 299, DurationMinutes: 45, RequiredSkills: []string{"brake_service"},
		},
		{
			ID: "bike-puncture-repair", Name: "Bike Puncture Repair", VehicleType: domain.VehicleTypeBike,
			Category: domain.ServiceCategoryRepair, Description: "Tubeless or tube puncture repair at your doorstep.",
			BasePrice: 149, DurationMinutes: 20, RequiredSkills: []string{"tyre_service"},
		},
		{
			ID: "car-general-service", Name: "Car General Service", VehicleType: domain.VehicleTypeCar,
			Category: domain.ServiceCategoryMaintenance, Description: "Oil and filter change, fluid top-up, brake inspection, 40-point check.",
			BasePrice: 2499, DurationMinutes: 150, RequiredSkills: []string{"general_service", "oil_change"},
		},
		{
			ID: "car-oil-change", Name: "Car Engine Oil Change", VehicleType: domain.VehicleTypeCar,
			Category: domain.ServiceCategoryMaintenance, Description: "Synthetic or semi-synthetic oil change with filter.",
			BasePrice: 1499, DurationMinutes: 60, RequiredSkills: []string{"oil_change"},
		},
		{
			ID: "car-battery-jumpstart", Name: "Car Battery Jumpstart", VehicleType: domain.VehicleTypeCar,
			Category: domain.ServiceCategoryRepair, Description: "Jumpstart and battery health check.",
			BasePrice: 399, DurationMinutes: 30, RequiredSkills: []string{"electrical"},
		},
		{
			ID: "car-ac-service", Name: "Car AC Service", VehicleType: domain.VehicleTypeCar,
			Category: domain.ServiceCategoryRepair, Description: "AC gas top-up, condenser cleaning and cooling check.",
			BasePrice: 1999, DurationMinutes: 120, RequiredSkills: []string{"ac_service"},
		},
	}
}

type mechanicSeed struct {
	id, name, phone string
	lat, lng        float64
	city            string
	skills          []string
	rating          float64
	jobsDone        int
	radiusKm        float64
	active          bool
	slotOffsets     []time.Duration // relative to the seeding time
}

var mechanicSeeds = []mechanicSeed{
	{"mech-001", "Rajesh Kumar", "+919810000001", 28.6315, 77.2167, "delhi", []string{"general_service", "oil_change", "brake_service"}, 4.8, 420, 10, true, []time.Duration{2 * time.Hour, 5 * time.Hour, 26 * time.Hour}},
	{"mech-002", "Amit Sharma", "+919810000002", 28.5672, 77.2100, "delhi", []string{"general_service", "tyre_service"}, 4.5, 180, 8, true, []time.Duration{3 * time.Hour, 27 * time.Hour}},
	{"mech-003", "Suresh Yadav", "+919810000003", 28.7041, 77.1025, "delhi", []string{"general_service", "oil_change", "electrical"}, 4.9, 610, 12, true, []time.Duration{24 * time.Hour}},
	{"mech-004", "Vikram Singh", "+919810000004", 28.5355, 77.3910, "noida", []string{"general_service", "oil_change", "ac_service"}, 4.6, 300, 15, true, []time.Duration{4 * time.Hour, 28 * time.Hour}},
	{"mech-005", "Manoj Verma", "+919810000005", 28.4595, 77.0266, "gurugram", []string{"oil_change", "electrical", "ac_service"}, 4.7, 350, 15, true, []time.Duration{6 * time.Hour}},
	{"mech-006", "Deepak Chauhan", "+919810000006", 28.6692, 77.4538, "ghaziabad", []string{"general_service", "brake_service", "tyre_service"}, 4.2, 95, 10, true, nil},
	{"mech-007", "Ravi Gupta", "+919810000007", 28.4089, 77.3178, "faridabad", []string{"general_service", "oil_change"}, 4.4, 150, 10, true, []time.Duration{5 * time.Hour}},
	{"mech-008", "Sanjay Mehta", "+919810000008", 28.6129, 77.2295, "new_delhi", []string{"general_service", "oil_change", "brake_service", "electrical"}, 4.3, 75, 6, false, []time.Duration{2 * time.Hour}},
}

// Mechanics returns the reference mechanic pool with slots relative to now.
func Mechanics(now time.Time) []*domain.Mechanic {
	base := now.Truncate(time.Hour)
	out := make([]*domain.Mechanic, 0, len(mechanicSeeds))
	for _, s := range mechanicSeeds {
		slots := make([]time.Time, 0, len(s.slotOffsets))
		for _, off := range s.slotOffsets {
			slots = append(slots, base.Add(off))
		}
		out = append(out, &domain.Mechanic{
			ID:              s.id,
			Name:            s.name,
			Phone:           s.phone,
			Lat:             s.lat,
			Lng:             s.lng,
			City:            s.city,
			Skills:          append([]string(nil), s.skills...),
			Rating:          s.rating,
			JobsDone:        s.jobsDone,
			ServiceRadiusKm: s.radiusKm,
			IsActive:        s.active,
			AvailableSlots:  slots,
			CreatedAt:       now,
		})
	}
	return out
}

// Load upserts the catalog and the mechanic pool. Running it again refreshes
// the records in place.
func Load(ctx context.Context, catalogRepo repository.CatalogRepository, mechanicRepo repository.MechanicRepository, now time.Time, logger *zap.Logger) error {
	services := Services()
	for _, svc := range services {
		if err := catalogRepo.Upsert(ctx, svc); err != nil {
			return fmt.Errorf("seed service %s: %w", svc.ID, err)
		}
	}

	mechanics := Mechanics(now)
	for _, m := range mechanics {
		if err := mechanicRepo.Upsert(ctx, m); err != nil {
			return fmt.Errorf("seed mechanic %s: %w", m.ID, err)
		}
	}

	logger.Info("seed data loaded", zap.Int("services", len(services)), zap.Int("mechanics", len(mechanics)))
	return nil
}
