package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"doorstep/internal/service"
)

// LeadHandler handles HTTP requests for bookings.
type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// CreateLeadRequest is the HTTP request body for a booking.
// Field rules are enforced by LeadService so that every problem is reported
// together.
type CreateLeadRequest struct {
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	Lat           *float64   `json:"lat"`
	Lng           *float64   `json:"lng"`
	VehicleType   string     `json:"vehicleType"`
	VehicleBrand  string     `json:"vehicleBrand"`
	VehicleModel  string     `json:"vehicleModel"`
	ServiceID     string     `json:"serviceId"`
	MechanicID    string     `json:"mechanicId"`
	SlotStart     *time.Time `json:"slotStart"`
	SlotEnd       *time.Time `json:"slotEnd"`
}

// CreateLeadResponse is the HTTP response for a booking.
type CreateLeadResponse struct {
	OK         bool   `json:"ok"`
	TrackingID string `json:"trackingId"`
	Message    string `json:"message"`
}

// UpdateStatusRequest is the HTTP request body for an operator status override.
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Message string `json:"message" binding:"max=500"`
}

// Create handles POST /api/leads
func (h *LeadHandler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	lead, err := h.leadService.CreateLead(c.Request.Context(), service.CreateLeadRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		City:          req.City,
		Lat:           req.Lat,
		Lng:           req.Lng,
		VehicleType:   req.VehicleType,
		VehicleBrand:  req.VehicleBrand,
		VehicleModel:  req.VehicleModel,
		ServiceID:     req.ServiceID,
		MechanicID:    req.MechanicID,
		SlotStart:     derefTime(req.SlotStart),
		SlotEnd:       derefTime(req.SlotEnd),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateLeadResponse{
		OK:         true,
		TrackingID: lead.TrackingID,
		Message:    lead.Status.Message(),
	})
}

// GetAll handles GET /api/admin/leads
func (h *LeadHandler) GetAll(c *gin.Context) {
	leads, err := h.leadService.ListLeads(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := make([]AdminLeadResponse, 0, len(leads))
	for _, entry := range leads {
		resp = append(resp, AdminLeadResponse{
			LeadResponse: toLeadResponse(entry.Lead),
			Mechanic:     toMechanicResponsePtr(entry.Mechanic),
		})
	}
	respondJSON(c, http.StatusOK, resp)
}

// UpdateStatus handles PUT /api/admin/leads/:trackingId/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	lead, err := h.leadService.UpdateStatus(c.Request.Context(), c.Param("trackingId"), req.Status, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toLeadResponse(lead))
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
