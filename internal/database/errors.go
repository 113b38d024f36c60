package database

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a row is in a state that forbids the
	// requested transition, e.g. promoting an already processed detection.
	ErrConflict = errors.New("conflict")
)
