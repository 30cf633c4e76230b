package domain

import (
	"errors"
	"strings"
	"time"
)

// LeadStatus represents the progress of a booking.
type LeadStatus string

const (
	LeadStatusConfirmed  LeadStatus = "confirmed"
	LeadStatusAssigned   LeadStatus = "assigned"
	LeadStatusOnTheWay   LeadStatus = "on_the_way"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusCompleted  LeadStatus = "completed"
)

var ErrInvalidLeadStatus = errors.New("invalid lead status")

// leadProgression is the only order a lead moves through.
var leadProgression = []LeadStatus{
	LeadStatusConfirmed,
	LeadStatusAssigned,
	LeadStatusOnTheWay,
	LeadStatusInProgress,
	LeadStatusCompleted,
}

var leadStatusMessages = map[LeadStatus]string{
	LeadStatusConfirmed:  "Booking confirmed. We are finding the best mechanic for you.",
	LeadStatusAssigned:   "A mechanic has been assigned to your booking.",
	LeadStatusOnTheWay:   "Your mechanic is on the way.",
	LeadStatusInProgress: "Service is in progress.",
	LeadStatusCompleted:  "Service completed. Thank you for choosing us!",
}

// ParseLeadStatus normalizes (lowercases+trims) and validates a status string.
func ParseLeadStatus(in string) (LeadStatus, error) {
	status := LeadStatus(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidLeadStatus
}

// Valid reports whether status is one of the lead status constants.
func (s LeadStatus) Valid() bool {
	return s.rank() >= 0
}

// Terminal reports whether no further progress is possible.
func (s LeadStatus) Terminal() bool {
	return s == LeadStatusCompleted
}

// Next returns the status one step ahead. Completed maps to itself.
func (s LeadStatus) Next() (LeadStatus, error) {
	r := s.rank()
	if r < 0 {
		return "", ErrInvalidLeadStatus
	}
	if r == len(leadProgression)-1 {
		return s, nil
	}
	return leadProgression[r+1], nil
}

// Message returns the canned customer-facing text for the status.
func (s LeadStatus) Message() string {
	return leadStatusMessages[s]
}

// LeadStatuses returns the progression in order.
func LeadStatuses() []LeadStatus {
	return append([]LeadStatus(nil), leadProgression...)
}

func (s LeadStatus) rank() int {
	for i, st := range leadProgression {
		if st == s {
			return i
		}
	}
	return -1
}

// Coordinates is an optional precise service location.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Lead is a booking submitted through the funnel.
type Lead struct {
	ID            string
	TrackingID    string
	CustomerName  string
	CustomerPhone string
	Address       string
	City          string
	Location      *Coordinates
	VehicleType   VehicleType
	VehicleBrand  string
	VehicleModel  string
	ServiceID     string
	MechanicID    string
	SlotStart     time.Time
	SlotEnd       time.Time
	Status        LeadStatus
	TotalAmount   *float64 // set on completion
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy.
func (l *Lead) Clone() *Lead {
	c := *l
	if l.Location != nil {
		loc := *l.Location
		c.Location = &loc
	}
	if l.TotalAmount != nil {
		amt := *l.TotalAmount
		c.TotalAmount = &amt
	}
	return &c
}

// StatusUpdate is an append-only history entry of a lead.
type StatusUpdate struct {
	ID        string
	LeadID    string
	Status    LeadStatus
	Message   string
	CreatedAt time.Time
}
