package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"doorstep/internal/domain"
)

func TestScoreMechanic(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		m        domain.Mechanic
		distance float64
		want     ScoreBreakdown
	}{
		{
			name:     "on the doorstep, perfect record",
			m:        domain.Mechanic{Rating: 5, JobsDone: 500, AvailableSlots: []time.Time{now.Add(time.Hour)}},
			distance: 0,
			want:     ScoreBreakdown{Proximity: 0.9, Rating: 0.25, Experience: 0.15, Availability: 0.15},
		},
		{
			name:     "experience is capped",
			m:        domain.Mechanic{Rating: 0, JobsDone: 5000},
			distance: 9.5,
			want:     ScoreBreakdown{Proximity: 0.045, Experience: 0.15},
		},
		{
			name:     "slot at now is not upcoming",
			m:        domain.Mechanic{Rating: 2.5, JobsDone: 100, AvailableSlots: []time.Time{now}},
			distance: 4.5,
			want:     ScoreBreakdown{Proximity: 0.09, Rating: 0.125, Experience: 0.03},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreMechanic(&tc.m, tc.distance, now)
			assert.InDelta(t, tc.want.Proximity, got.Proximity, 1e-9)
			assert.InDelta(t, tc.want.Rating, got.Rating, 1e-9)
			assert.InDelta(t, tc.want.Experience, got.Experience, 1e-9)
			assert.InDelta(t, tc.want.Availability, got.Availability, 1e-9)
			assert.InDelta(t, tc.want.Total(), got.Total(), 1e-9)
		})
	}
}

func TestSortRanked(t *testing.T) {
	mk := func(id string, score, distance float64) RankedMechanic {
		return RankedMechanic{Mechanic: &domain.Mechanic{ID: id}, Score: score, DistanceKm: distance}
	}
	results := []RankedMechanic{
		mk("c", 0.5, 3),
		mk("b", 0.5, 2),
		mk("a", 0.5, 2),
		mk("d", 0.9, 10),
	}

	sortRanked(results)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Mechanic.ID
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}
