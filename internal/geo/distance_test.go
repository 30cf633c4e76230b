package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var points = []struct {
	name     string
	lat, lng float64
}{
	{"connaught place", 28.6139, 77.2090},
	{"rohini", 28.70, 77.10},
	{"noida", 28.5355, 77.3910},
	{"gurugram", 28.4595, 77.0266},
	{"mumbai", 19.0760, 72.8777},
	{"south pole", -90, 0},
	{"dateline", 0, 180},
}

func TestDistanceKm_Identity(t *testing.T) {
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p.lat, p.lng, p.lat, p.lng), p.name)
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	for _, a := range points {
		for _, b := range points {
			ab := DistanceKm(a.lat, a.lng, b.lat, b.lng)
			ba := DistanceKm(b.lat, b.lng, a.lat, a.lng)
			assert.InDelta(t, ab, ba, 1e-9, "%s <-> %s", a.name, b.name)
			assert.GreaterOrEqual(t, ab, 0.0)
		}
	}
}

func TestDistanceKm_KnownValues(t *testing.T) {
	testCases := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{"central delhi to rohini", 28.6139, 77.2090, 28.70, 77.10, 14.31},
		{"central delhi to noida", 28.6139, 77.2090, 28.5355, 77.3910, 19.80},
		{"central delhi to gurugram", 28.6139, 77.2090, 28.4595, 77.0266, 24.74},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111.19},
		{"half circumference", 0, 0, 0, 180, math.Pi * EarthRadiusKm},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, DistanceKm(tc.lat1, tc.lng1, tc.lat2, tc.lng2), 0.05)
		})
	}
}

func TestDistanceKm_NaNPropagates(t *testing.T) {
	assert.True(t, math.IsNaN(DistanceKm(math.NaN(), 77.2, 28.6, 77.2)))
	assert.True(t, math.IsNaN(DistanceKm(28.6, 77.2, 28.6, math.NaN())))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidLatitude(-90))
	assert.True(t, ValidLatitude(90))
	assert.False(t, ValidLatitude(90.0001))
	assert.False(t, ValidLatitude(math.NaN()))
	assert.True(t, ValidLongitude(-180))
	assert.False(t, ValidLongitude(181))
	assert.False(t, ValidLongitude(math.NaN()))
}
