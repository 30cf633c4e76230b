package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"doorstep/internal/repository"
)

var (
	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrOutOfArea is returned when a booking city is outside the service area.
	ErrOutOfArea = errors.New("we do not serve this city yet")

	// ErrRateLimited is returned when a phone number has booked too often recently.
	ErrRateLimited = errors.New("too many bookings from this phone number, please try again later")

	// ErrLeadNotFound is returned when a tracking id is unknown.
	ErrLeadNotFound = errors.New("booking not found")

	// ErrMechanicNotFound is returned when a mechanic id is unknown.
	ErrMechanicNotFound = errors.New("mechanic not found")

	// ErrProgressConflict is returned when another request changed the lead first.
	ErrProgressConflict = errors.New("booking status was changed by another request")

	// ErrTrackingIDExhausted is returned when no unique tracking id could be generated.
	ErrTrackingIDExhausted = errors.New("could not allocate a unique tracking id")
)

// ValidationError carries per-field problems of a rejected request.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem for field. The first problem per field wins.
func (e *ValidationError) Add(field, problem string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = problem
	}
}

// Empty reports whether no problem was recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e when it holds problems and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Reason is the stable machine-readable error code sent to clients.
type Reason string

const (
	ReasonValidation Reason = "VALIDATION_ERROR"
	ReasonOutOfArea  Reason = "OUT_OF_AREA"
	ReasonRateLimit  Reason = "RATE_LIMITED"
	ReasonNotFound   Reason = "NOT_FOUND"
	ReasonConflict   Reason = "CONFLICT"
	ReasonInternal   Reason = "INTERNAL_ERROR"
)

// ReasonOf classifies err. Anything unrecognised is internal.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	case errors.Is(err, ErrOutOfArea):
		return ReasonOutOfArea
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimit
	case errors.Is(err, ErrLeadNotFound),
		errors.Is(err, ErrMechanicNotFound),
		errors.Is(err, repository.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrProgressConflict),
		errors.Is(err, repository.ErrStatusConflict):
		return ReasonConflict
	default:
		return ReasonInternal
	}
}
