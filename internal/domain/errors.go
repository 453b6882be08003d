package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Exercise errors
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrDuplicateID      = errors.New("duplicate exercise id")
)

// Answer validation errors
var (
	ErrValidatorNotFound = errors.New("custom validator not registered")
	ErrRunnerUnavailable = errors.New("code execution runner unavailable")
)

// Import errors
var (
	ErrSourceNotFound = errors.New("content source not found")
	ErrEmptyBatch     = errors.New("import batch is empty")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
