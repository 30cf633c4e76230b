package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyMechanicID      = errors.New("mechanic id cannot be empty")
	ErrInvalidRating        = errors.New("rating must be between 0 and 5")
	ErrNegativeJobsDone     = errors.New("jobs done cannot be negative")
	ErrInvalidServiceRadius = errors.New("service radius must be positive")
)

// Mechanic represents a doorstep mechanic in the directory.
type Mechanic struct {
	ID              string
	Name            string
	Phone           string
	Lat             float64
	Lng             float64
	City            string
	Skills          []string
	Rating          float64 // 0.0 - 5.0
	JobsDone        int
	ServiceRadiusKm float64
	IsActive        bool
	AvailableSlots  []time.Time // ascending
	CreatedAt       time.Time
}

// Validate checks the mechanic invariants.
func (m *Mechanic) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyMechanicID
	}
	if m.Rating < 0 || m.Rating > 5 {
		return ErrInvalidRating
	}
	if m.JobsDone < 0 {
		return ErrNegativeJobsDone
	}
	if m.ServiceRadiusKm <= 0 {
		return ErrInvalidServiceRadius
	}
	return nil
}

// HasSkills reports whether every required tag is among the mechanic's skills.
func (m *Mechanic) HasSkills(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(m.Skills))
	for _, s := range m.Skills {
		have[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

// HasUpcomingSlot reports whether at least one slot starts after now.
func (m *Mechanic) HasUpcomingSlot(now time.Time) bool {
	for _, slot := range m.AvailableSlots {
		if slot.After(now) {
			return true
		}
	}
	return false
}

// UpcomingSlots returns the slots that start after now.
func (m *Mechanic) UpcomingSlots(now time.Time) []time.Time {
	out := make([]time.Time, 0, len(m.AvailableSlots))
	for _, slot := range m.AvailableSlots {
		if slot.After(now) {
			out = append(out, slot)
		}
	}
	return out
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (m *Mechanic) Clone() *Mechanic {
	c := *m
	c.Skills = append([]string(nil), m.Skills...)
	c.AvailableSlots = append([]time.Time(nil), m.AvailableSlots...)
	return &c
}
