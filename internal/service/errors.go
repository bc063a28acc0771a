package service

import "github.com/cockroachdb/errors"

// Sentinel errors for the job service. Callers check them with errors.Is.
var (
	// ErrNilComputation is returned by NewJobService when no computation is
	// supplied.
	ErrNilComputation = errors.New("computation cannot be nil")

	// ErrKeyGeneration indicates a job key could not be produced.
	// API layer should map this to HTTP 500.
	ErrKeyGeneration = errors.New("job key generation failed")
)
