package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness
	// constraint (currently only the users.email index).
	ErrDuplicate = errors.New("record already exists")
)
