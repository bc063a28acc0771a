// Package domain defines the core business entities and errors.
package domain

import "github.com/cockroachdb/errors"

// Common domain errors used across the application.
var (
	// ErrCapacityExceeded is returned when a job cannot be accepted because
	// the work queue is full. No job is created; the caller should retry
	// later or shed load.
	ErrCapacityExceeded = errors.New("job capacity exceeded")

	// ErrServiceStopped is returned when a job is submitted after the job
	// service has shut down.
	ErrServiceStopped = errors.New("job service stopped")

	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")
)
