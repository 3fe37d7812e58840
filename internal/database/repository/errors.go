package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("document not found")

	// ErrVersionConflict is returned when a conditional write lost against a
	// concurrent writer. The caller should reload and try again.
	ErrVersionConflict = errors.New("document version conflict")
)
