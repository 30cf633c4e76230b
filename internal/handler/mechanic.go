package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"doorstep/internal/service"
)

// MechanicHandler handles HTTP requests for mechanic search and administration.
type MechanicHandler struct {
	searchService *service.SearchService
	directory     *service.DirectoryService
	maxRadiusKm   float64
	logger        *zap.Logger
}

// NewMechanicHandler creates a new MechanicHandler.
// A non-positive maxRadiusKm disables the upper radius bound.
func NewMechanicHandler(searchService *service.SearchService, directory *service.DirectoryService, maxRadiusKm float64, logger *zap.Logger) *MechanicHandler {
	return &MechanicHandler{
		searchService: searchService,
		directory:     directory,
		maxRadiusKm:   maxRadiusKm,
		logger:        logger,
	}
}

// SearchMechanicsRequest is the HTTP request body for a mechanic search.
type SearchMechanicsRequest struct {
	Lat         *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
	VehicleType string   `json:"vehicleType" binding:"required"`
	ServiceID   string   `json:"serviceId"`
	RadiusKm    *float64 `json:"radiusKm" binding:"omitempty,gte=0"`
}

// SetActiveRequest is the HTTP request body for toggling a mechanic.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetSlotsRequest is the HTTP request body for replacing a mechanic's slots.
type SetSlotsRequest struct {
	Slots []time.Time `json:"slots" binding:"required"`
}

// Search handles POST /api/mechanics/search
func (h *MechanicHandler) Search(c *gin.Context) {
	var req SearchMechanicsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	var radiusKm float64
	if req.RadiusKm != nil {
		radiusKm = *req.RadiusKm
	}
	if h.maxRadiusKm > 0 && radiusKm > h.maxRadiusKm {
		verr := service.NewValidationError()
		verr.Add("radiusKm", fmt.Sprintf("must be at most %g", h.maxRadiusKm))
		respondError(c, h.logger, verr)
		return
	}

	results, err := h.searchService.Search(c.Request.Context(), service.SearchRequest{
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		VehicleType: req.VehicleType,
		ServiceID:   req.ServiceID,
		RadiusKm:    radiusKm,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toRankedResponses(results))
}

// GetAll handles GET /api/admin/mechanics
func (h *MechanicHandler) GetAll(c *gin.Context) {
	mechanics, err := h.directory.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toMechanicResponses(mechanics))
}

// SetActive handles PUT /api/admin/mechanics/:id/active
func (h *MechanicHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	mechanic, err := h.directory.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toMechanicResponse(mechanic))
}

// SetSlots handles PUT /api/admin/mechanics/:id/slots
func (h *MechanicHandler) SetSlots(c *gin.Context) {
	var req SetSlotsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	mechanic, err := h.directory.SetAvailability(c.Request.Context(), c.Param("id"), req.Slots)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toMechanicResponse(mechanic))
}
