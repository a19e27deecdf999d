package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleEntity is returned when a conditional write matched no
	// row because the entity changed since it was read.
	ErrStaleEntity = errors.New("entity changed since read")
)
