package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

// CatalogHandler handles HTTP requests for the service catalog.
type CatalogHandler struct {
	catalogRepo repository.CatalogRepository
	logger      *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogRepo repository.CatalogRepository, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// GetAll handles GET /api/services
func (h *CatalogHandler) GetAll(c *gin.Context) {
	services, err := h.catalogRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toServiceResponses(services))
}

// GetByVehicleType handles GET /api/services/:vehicleType
func (h *CatalogHandler) GetByVehicleType(c *gin.Context) {
	vehicleType, ok := domain.ParseVehicleType(c.Param("vehicleType"))
	if !ok {
		respondJSON(c, http.StatusOK, []ServiceResponse{})
		return
	}

	services, err := h.catalogRepo.GetByVehicleType(c.Request.Context(), vehicleType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, toServiceResponses(services))
}
