package service

import "errors"

var (
	// ErrNotFound marks a referenced entity (post, user, ingredient) as absent
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a structurally invalid request, including
	// uniqueness violations surfaced at persist time
	ErrInvalidInput = errors.New("invalid input")
)
