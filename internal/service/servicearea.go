package service

import (
	"sort"
	"strings"
)

// ServiceArea is the fixed allow-list of cities bookings are accepted for.
// It is built once at start-up and never mutated.
type ServiceArea struct {
	cities map[string]struct{}
}

// NewServiceArea creates a ServiceArea from city codes.
func NewServiceArea(codes []string) *ServiceArea {
	cities := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if c := normalizeCity(code); c != "" {
			cities[c] = struct{}{}
		}
	}
	return &ServiceArea{cities: cities}
}

// Contains reports whether city is served. Unknown or empty input is false.
func (a *ServiceArea) Contains(city string) bool {
	c := normalizeCity(city)
	if c == "" {
		return false
	}
	_, ok := a.cities[c]
	return ok
}

// Cities returns the served city codes in sorted order.
func (a *ServiceArea) Cities() []string {
	out := make([]string, 0, len(a.cities))
	for c := range a.cities {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// normalizeCity lowercases and trims, and folds spaces and hyphens into
// underscores so "New Delhi" and "new_delhi" are the same code.
func normalizeCity(city string) string {
	fields := strings.FieldsFunc(strings.ToLower(city), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	})
	return strings.Join(fields, "_")
}
