package domain

import "strings"

// VehicleType represents the kind of vehicle a service applies to.
type VehicleType string

const (
	VehicleTypeBike VehicleType = "bike"
	VehicleTypeCar  VehicleType = "car"
)

// ParseVehicleType normalizes and validates a vehicle type string.
func ParseVehicleType(in string) (VehicleType, bool) {
	vt := VehicleType(strings.ToLower(strings.TrimSpace(in)))
	return vt, vt.Valid()
}

// Valid reports whether the vehicle type is supported.
func (vt VehicleType) Valid() bool {
	return vt == VehicleTypeBike || vt == VehicleTypeCar
}

// ServiceCategory groups catalog services.
type ServiceCategory string

const (
	ServiceCategoryMaintenance ServiceCategory = "maintenance"
	ServiceCategoryRepair      ServiceCategory = "repair"
)

// Service is an immutable catalog entry.
type Service struct {
	ID              string
	Name            string
	VehicleType     VehicleType
	Category        ServiceCategory
	Description     string
	BasePrice       float64
	DurationMinutes int
	RequiredSkills  []string
}

// Clone returns a deep copy.
func (s *Service) Clone() *Service {
	c := *s
	c.RequiredSkills = append([]string(nil), s.RequiredSkills...)
	return &c
}
