package models

import "errors"

// Store-level errors shared by every persistence backend.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)
