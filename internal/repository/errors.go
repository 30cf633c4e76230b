package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateTrackingID is returned when a tracking id is already taken.
	ErrDuplicateTrackingID = errors.New("tracking id already exists")

	// ErrStatusConflict is returned when a compare-and-swap on a lead status
	// finds a different current status than expected.
	ErrStatusConflict = errors.New("lead status changed concurrently")
)
