package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doorstep/internal/config"
	"doorstep/internal/handler"
	"doorstep/internal/seed"
	"doorstep/internal/service"
)

func newTestRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	stores, err := NewStores(config.StoreMemory, nil)
	require.NoError(t, err)
	require.NoError(t, seed.Load(context.Background(), stores.Catalog, stores.Mechanics, time.Now(), logger))

	directory := service.NewDirectoryService(stores.Mechanics, nil, nil, logger)
	search := service.NewSearchService(directory, stores.Catalog, 25, logger)
	leads := service.NewLeadService(
		stores.Leads,
		stores.Catalog,
		directory,
		service.NewServiceArea(config.DefaultServiceAreaCities),
		service.NewNotificationService(nil, logger),
		nil,
		service.DefaultLeadPolicy(),
		logger,
	)

	return NewRouter(RouterDeps{
		CatalogHandler:  handler.NewCatalogHandler(stores.Catalog, logger),
		MechanicHandler: handler.NewMechanicHandler(search, directory, 100, logger),
		LeadHandler:     handler.NewLeadHandler(leads, logger),
		TrackingHandler: handler.NewTrackingHandler(service.NewTrackingService(leads, stores.Leads), leads, logger),
		AllowedOrigins:  origins,
		Logger:          logger,
	})
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"reason":"NOT_FOUND"`)
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t, []string{"https://book.example.in"})

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	req.Header.Set("Origin", "https://book.example.in")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://book.example.in", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_BookingFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	body := `{
		"customerName": "Rohit Jain",
		"customerPhone": "9876543210",
		"address": "B-12 Sector 18",
		"city": "Noida",
		"vehicleType": "car",
		"vehicleBrand": "Maruti",
		"vehicleModel": "Swift",
		"serviceId": "car-oil-change",
		"slotStart": "` + time.Now().Add(24*time.Hour).UTC().Format(time.RFC3339) + `"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"ok":true`)
	assert.Contains(t, w.Body.String(), `"trackingId":"GW`)
}
