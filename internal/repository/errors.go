package repository

import "errors"

var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the requested status change is not a legal
	// edge of the schedule state machine; the row is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")
)
