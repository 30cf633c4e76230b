package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

func TestMechanicRepository_UpsertValidates(t *testing.T) {
	ctx := context.Background()
	repo := NewMechanicRepository()

	testCases := []struct {
		name    string
		m       domain.Mechanic
		wantErr error
	}{
		{"rating above five", domain.Mechanic{ID: "m1", Rating: 5.1, ServiceRadiusKm: 10}, domain.ErrInvalidRating},
		{"negative jobs", domain.Mechanic{ID: "m1", Rating: 4, JobsDone: -1, ServiceRadiusKm: 10}, domain.ErrNegativeJobsDone},
		{"zero radius", domain.Mechanic{ID: "m1", Rating: 4}, domain.ErrInvalidServiceRadius},
		{"missing id", domain.Mechanic{Rating: 4, ServiceRadiusKm: 10}, domain.ErrEmptyMechanicID},
		{"valid", domain.Mechanic{ID: "m1", Rating: 4, ServiceRadiusKm: 10}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.m
			err := repo.Upsert(ctx, &m)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMechanicRepository_GetByCityIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := NewMechanicRepository()
	require.NoError(t, repo.Upsert(ctx, &domain.Mechanic{ID: "m2", City: "Delhi", ServiceRadiusKm: 5}))
	require.NoError(t, repo.Upsert(ctx, &domain.Mechanic{ID: "m1", City: "delhi", ServiceRadiusKm: 5}))
	require.NoError(t, repo.Upsert(ctx, &domain.Mechanic{ID: "m3", City: "noida", ServiceRadiusKm: 5}))

	got, err := repo.GetByCity(ctx, " DELHI ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
}

func TestMechanicRepository_SetActiveAndAvailability(t *testing.T) {
	ctx := context.Background()
	repo := NewMechanicRepository()
	require.NoError(t, repo.Upsert(ctx, &domain.Mechanic{ID: "m1", IsActive: true, ServiceRadiusKm: 5}))

	require.NoError(t, repo.SetActive(ctx, "m1", false))
	later := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-2 * time.Hour)
	require.NoError(t, repo.SetAvailability(ctx, "m1", []time.Time{later, earlier}))

	m, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	assert.Equal(t, []time.Time{earlier, later}, m.AvailableSlots)

	assert.ErrorIs(t, repo.SetActive(ctx, "ghost", true), repository.ErrNotFound)
	assert.ErrorIs(t, repo.SetAvailability(ctx, "ghost", nil), repository.ErrNotFound)
}
