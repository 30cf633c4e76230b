package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doorstep/internal/domain"
	"doorstep/internal/repository/memory"
)

func newTestLeadService(t *testing.T) (*LeadService, *memory.LeadRepository) {
	t.Helper()
	logger := zap.NewNop()
	leads := memory.NewLeadRepository()
	directory := NewDirectoryService(memory.NewMechanicRepository(), nil, nil, logger)
	svc := NewLeadService(
		leads,
		memory.NewCatalogRepository(),
		directory,
		NewServiceArea([]string{"delhi"}),
		nil,
		nil,
		LeadPolicy{},
		logger,
	)
	return svc, leads
}

func testLeadRequest() CreateLeadRequest {
	return CreateLeadRequest{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Address:       "12 Janpath Road",
		City:          "delhi",
		VehicleType:   "car",
		VehicleBrand:  "Maruti",
		VehicleModel:  "Swift",
		SlotStart:     time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateLead_RetriesTrackingIDCollisions(t *testing.T) {
	svc, leads := newTestLeadService(t)

	ids := []string{"GWAAAAAAAA", "GWAAAAAAAA", "GWBBBBBBBB"}
	next := 0
	svc.newTrackingID = func() string {
		id := ids[next]
		next++
		return id
	}

	first, err := svc.CreateLead(context.Background(), testLeadRequest())
	require.NoError(t, err)
	assert.Equal(t, "GWAAAAAAAA", first.TrackingID)

	req := testLeadRequest()
	req.CustomerPhone = "9123456789"
	second, err := svc.CreateLead(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "GWBBBBBBBB", second.TrackingID)

	all, err := leads.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateLead_GivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, _ := newTestLeadService(t)
	svc.newTrackingID = func() string { return "GWSAMESAME" }

	_, err := svc.CreateLead(context.Background(), testLeadRequest())
	require.NoError(t, err)

	req := testLeadRequest()
	req.CustomerPhone = "9123456789"
	_, err = svc.CreateLead(context.Background(), req)
	assert.ErrorIs(t, err, ErrTrackingIDExhausted)
	assert.Equal(t, ReasonInternal, ReasonOf(err))
}

func TestCreateLead_DefaultSlotLengthIsOneHour(t *testing.T) {
	svc, _ := newTestLeadService(t)
	req := testLeadRequest()

	lead, err := svc.CreateLead(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.SlotStart.Add(time.Hour), lead.SlotEnd)
	assert.Equal(t, domain.VehicleTypeCar, lead.VehicleType)
}

func TestCreateLead_RateLimitWindowSlides(t *testing.T) {
	svc, _ := newTestLeadService(t)
	clock := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		_, err := svc.CreateLead(context.Background(), testLeadRequest())
		require.NoError(t, err)
		clock = clock.Add(10 * time.Minute)
	}

	_, err := svc.CreateLead(context.Background(), testLeadRequest())
	assert.ErrorIs(t, err, ErrRateLimited)

	// The first lead leaves the trailing hour.
	clock = time.Date(2026, 6, 1, 9, 0, 1, 0, time.UTC)
	_, err = svc.CreateLead(context.Background(), testLeadRequest())
	assert.NoError(t, err)
}

func TestNewTrackingID(t *testing.T) {
	id := NewTrackingID("GW")
	assert.Regexp(t, `^GW[0-9A-F]{8}$`, id)
	assert.NotEqual(t, id, NewTrackingID("GW"))
}

func TestNormalizePhone(t *testing.T) {
	testCases := map[string]string{
		"9876543210":        "9876543210",
		" +91 98765-43210 ": "9876543210",
		"919876543210":      "9876543210",
		"09876543210":       "9876543210",
		"(011) 2345.6789":   "1123456789",
		"+4420794601234":    "+4420794601234",
		"+09876543210":      "+09876543210",
		"98+76543210":       "98+76543210",
		"abc":               "abc",
	}
	for in, want := range testCases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}
