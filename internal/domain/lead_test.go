package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadStatus_Next(t *testing.T) {
	tests := []struct {
		from LeadStatus
		want LeadStatus
	}{
		{LeadStatusConfirmed, LeadStatusAssigned},
		{LeadStatusAssigned, LeadStatusOnTheWay},
		{LeadStatusOnTheWay, LeadStatusInProgress},
		{LeadStatusInProgress, LeadStatusCompleted},
		{LeadStatusCompleted, LeadStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, err := tt.from.Next()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LeadStatus("cancelled").Next()
	assert.ErrorIs(t, err, ErrInvalidLeadStatus)
}

func TestParseLeadStatus(t *testing.T) {
	got, err := ParseLeadStatus("  On_The_Way ")
	require.NoError(t, err)
	assert.Equal(t, LeadStatusOnTheWay, got)

	_, err = ParseLeadStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidLeadStatus)
}

func TestLeadStatus_MessagesAndTerminal(t *testing.T) {
	for _, s := range LeadStatuses() {
		assert.NotEmpty(t, s.Message(), s)
		assert.Equal(t, s == LeadStatusCompleted, s.Terminal(), s)
	}
}

func TestLead_CloneIsDeep(t *testing.T) {
	amount := 499.0
	lead := &Lead{TrackingID: "GW00000001", Location: &Coordinates{Lat: 28.6, Lng: 77.2}, TotalAmount: &amount}

	c := lead.Clone()
	c.Location.Lat = 0
	*c.TotalAmount = 0

	assert.Equal(t, 28.6, lead.Location.Lat)
	assert.Equal(t, 499.0, *lead.TotalAmount)
}
