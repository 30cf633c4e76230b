package handler

import (
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/service"
)

// ServiceResponse is the JSON shape of a catalog service.
type ServiceResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	VehicleType     string   `json:"vehicleType"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	BasePrice       float64  `json:"basePrice"`
	DurationMinutes int      `json:"durationMinutes"`
	RequiredSkills  []string `json:"requiredSkills"`
}

// MechanicResponse is the JSON shape of a mechanic.
type MechanicResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Phone           string      `json:"phone"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	City            string      `json:"city"`
	Skills          []string    `json:"skills"`
	Rating          float64     `json:"rating"`
	JobsDone        int         `json:"jobsDone"`
	ServiceRadiusKm float64     `json:"serviceRadiusKm"`
	IsActive        bool        `json:"isActive"`
	AvailableSlots  []time.Time `json:"availableSlots"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// ScoreBreakdownResponse exposes the weighted ranking terms.
type ScoreBreakdownResponse struct {
	Proximity    float64 `json:"proximity"`
	Rating       float64 `json:"rating"`
	Experience   float64 `json:"experience"`
	Availability float64 `json:"availability"`
}

// RankedMechanicResponse is one search hit.
type RankedMechanicResponse struct {
	MechanicResponse
	DistanceKm     float64                `json:"distanceKm"`
	Score          float64                `json:"score"`
	ScoreBreakdown ScoreBreakdownResponse `json:"scoreBreakdown"`
}

// LocationResponse is the optional precise location of a lead.
type LocationResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LeadResponse is the JSON shape of a lead.
type LeadResponse struct {
	ID            string            `json:"id"`
	TrackingID    string            `json:"trackingId"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	Address       string            `json:"address"`
	City          string            `json:"city"`
	Location      *LocationResponse `json:"location"`
	VehicleType   string            `json:"vehicleType"`
	VehicleBrand  string            `json:"vehicleBrand"`
	VehicleModel  string            `json:"vehicleModel"`
	ServiceID     string            `json:"serviceId,omitempty"`
	MechanicID    string            `json:"mechanicId,omitempty"`
	SlotStart     time.Time         `json:"slotStart"`
	SlotEnd       time.Time         `json:"slotEnd"`
	Status        string            `json:"status"`
	TotalAmount   *float64          `json:"totalAmount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// AdminLeadResponse is a lead joined with its mechanic.
type AdminLeadResponse struct {
	LeadResponse
	Mechanic *MechanicResponse `json:"mechanic"`
}

// StatusUpdateResponse is one entry of a lead's history.
type StatusUpdateResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// TrackingResponse is the customer-facing view of a booking.
type TrackingResponse struct {
	Lead          LeadResponse           `json:"lead"`
	StatusUpdates []StatusUpdateResponse `json:"statusUpdates"`
	Mechanic      *MechanicResponse      `json:"mechanic"`
}

func toServiceResponse(s *domain.Service) ServiceResponse {
	skills := s.RequiredSkills
	if skills == nil {
		skills = []string{}
	}
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		VehicleType:     string(s.VehicleType),
		Category:        string(s.Category),
		Description:     s.Description,
		BasePrice:       s.BasePrice,
		DurationMinutes: s.DurationMinutes,
		RequiredSkills:  skills,
	}
}

func toServiceResponses(services []*domain.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceResponse(s))
	}
	return out
}

func toMechanicResponse(m *domain.Mechanic) MechanicResponse {
	skills := m.Skills
	if skills == nil {
		skills = []string{}
	}
	slots := m.AvailableSlots
	if slots == nil {
		slots = []time.Time{}
	}
	return MechanicResponse{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		Lat:             m.Lat,
		Lng:             m.Lng,
		City:            m.City,
		Skills:          skills,
		Rating:          m.Rating,
		JobsDone:        m.JobsDone,
		ServiceRadiusKm: m.ServiceRadiusKm,
		IsActive:        m.IsActive,
		AvailableSlots:  slots,
		CreatedAt:       m.CreatedAt,
	}
}

func toMechanicResponsePtr(m *domain.Mechanic) *MechanicResponse {
	if m == nil {
		return nil
	}
	resp := toMechanicResponse(m)
	return &resp
}

func toMechanicResponses(mechanics []*domain.Mechanic) []MechanicResponse {
	out := make([]MechanicResponse, 0, len(mechanics))
	for _, m := range mechanics {
		out = append(out, toMechanicResponse(m))
	}
	return out
}

func toRankedResponses(results []service.RankedMechanic) []RankedMechanicResponse {
	out := make([]RankedMechanicResponse, 0, len(results))
	for _, r := range results {
		out = append(out, RankedMechanicResponse{
			MechanicResponse: toMechanicResponse(r.Mechanic),
			DistanceKm:       r.DistanceKm,
			Score:            r.Score,
			ScoreBreakdown: ScoreBreakdownResponse{
				Proximity:    r.Breakdown.Proximity,
				Rating:       r.Breakdown.Rating,
				Experience:   r.Breakdown.Experience,
				Availability: r.Breakdown.Availability,
			},
		})
	}
	return out
}

func toLeadResponse(l *domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:            l.ID,
		TrackingID:    l.TrackingID,
		CustomerName:  l.CustomerName,
		CustomerPhone: l.CustomerPhone,
		Address:       l.Address,
		City:          l.City,
		VehicleType:   string(l.VehicleType),
		VehicleBrand:  l.VehicleBrand,
		VehicleModel:  l.VehicleModel,
		ServiceID:     l.ServiceID,
		MechanicID:    l.MechanicID,
		SlotStart:     l.SlotStart,
		SlotEnd:       l.SlotEnd,
		Status:        string(l.Status),
		TotalAmount:   l.TotalAmount,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	if l.Location != nil {
		resp.Location = &LocationResponse{Lat: l.Location.Lat, Lng: l.Location.Lng}
	}
	return resp
}

func toStatusUpdateResponses(updates []*domain.StatusUpdate) []StatusUpdateResponse {
	out := make([]StatusUpdateResponse, 0, len(updates))
	for _, u := range updates {
		out = append(out, StatusUpdateResponse{
			ID:        u.ID,
			Status:    string(u.Status),
			Message:   u.Message,
			CreatedAt: u.CreatedAt,
		})
	}
	return out
}
