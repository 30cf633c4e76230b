package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMechanic_Validate(t *testing.T) {
	valid := func() *Mechanic {
		return &Mechanic{ID: "m1", Rating: 4.5, JobsDone: 10, ServiceRadiusKm: 10}
	}

	tests := []struct {
		name   string
		mutate func(*Mechanic)
		want   error
	}{
		{"valid", func(*Mechanic) {}, nil},
		{"blank id", func(m *Mechanic) { m.ID = " " }, ErrEmptyMechanicID},
		{"rating above 5", func(m *Mechanic) { m.Rating = 5.1 }, ErrInvalidRating},
		{"negative rating", func(m *Mechanic) { m.Rating = -0.1 }, ErrInvalidRating},
		{"negative jobs", func(m *Mechanic) { m.JobsDone = -1 }, ErrNegativeJobsDone},
		{"zero radius", func(m *Mechanic) { m.ServiceRadiusKm = 0 }, ErrInvalidServiceRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			err := m.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMechanic_HasSkills(t *testing.T) {
	m := &Mechanic{Skills: []string{"general_service", "oil_change"}}

	assert.True(t, m.HasSkills(nil))
	assert.True(t, m.HasSkills([]string{"oil_change"}))
	assert.True(t, m.HasSkills([]string{"oil_change", "general_service"}))
	assert.False(t, m.HasSkills([]string{"oil_change", "ac_service"}))
}

func TestMechanic_UpcomingSlots(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m := &Mechanic{AvailableSlots: []time.Time{now.Add(-time.Hour), now, now.Add(time.Hour)}}

	assert.True(t, m.HasUpcomingSlot(now))
	assert.Equal(t, []time.Time{now.Add(time.Hour)}, m.UpcomingSlots(now))
	assert.False(t, m.HasUpcomingSlot(now.Add(time.Hour)), "a slot starting exactly now is not upcoming")
}

func TestParseVehicleType(t *testing.T) {
	vt, ok := ParseVehicleType(" Bike ")
	assert.True(t, ok)
	assert.Equal(t, VehicleTypeBike, vt)

	_, ok = ParseVehicleType("truck")
	assert.False(t, ok)
}
