package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"doorstep/internal/service"
)

// TrackingHandler handles HTTP requests for booking tracking.
type TrackingHandler struct {
	trackingService *service.TrackingService
	leadService     *service.LeadService
	logger          *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService *service.TrackingService, leadService *service.LeadService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		leadService:     leadService,
		logger:          logger,
	}
}

// ProgressResponse is the HTTP response for a status progression.
type ProgressResponse struct {
	Status string `json:"status"`
}

// Get handles GET /api/track/:trackingId
func (h *TrackingHandler) Get(c *gin.Context) {
	tracking, err := h.trackingService.Get(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, TrackingResponse{
		Lead:          toLeadResponse(tracking.Lead),
		StatusUpdates: toStatusUpdateResponses(tracking.StatusUpdates),
		Mechanic:      toMechanicResponsePtr(tracking.Mechanic),
	})
}

// Progress handles POST /api/track/:trackingId/progress
func (h *TrackingHandler) Progress(c *gin.Context) {
	status, err := h.leadService.ProgressStatus(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, ProgressResponse{Status: string(status)})
}
