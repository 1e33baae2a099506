// Package apperr defines the sentinel errors shared across the service.
package apperr

import "errors"

var (
	// ErrNotFound indicates a requested item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a request failed validation before any work was done.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfig indicates a required provider or store is not configured.
	ErrConfig = errors.New("not configured")
	// ErrProvider indicates an upstream model provider call failed.
	ErrProvider = errors.New("provider error")
	// ErrParse indicates the model returned output that could not be parsed
	// into the expected shape.
	ErrParse = errors.New("parsing error")
	// ErrBlocked indicates the provider refused to generate output
	// (safety block or empty candidate list).
	ErrBlocked = errors.New("generation blocked")
)
