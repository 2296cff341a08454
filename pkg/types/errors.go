package types

import "errors"

// Domain errors shared across the engine and its collaborators
var (
	// Store lifecycle errors
	ErrNotInitialized     = errors.New("store not initialized")
	ErrAlreadyInitialized = errors.New("store already initialized")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDuplicateDocument  = errors.New("document already exists")

	// Document validation errors
	ErrEmptyDocumentID   = errors.New("document ID cannot be empty")
	ErrEmptyDocumentText = errors.New("document text cannot be empty")

	// Vector math errors
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Query validation errors
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrInvalidSearchType = errors.New("invalid search type")
)
