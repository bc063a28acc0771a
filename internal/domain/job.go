package domain

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
)

// Mode selects which computation a job runs. The job service never
// interprets it; it is passed through to the computation unchanged.
type Mode string

// JobStatus represents the lifecycle state of a submitted job
type JobStatus string

// Possible job status values. A key only ever moves from pending to done.
const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusDone    JobStatus = "DONE"
)

// Common validation errors for Job
var (
	ErrEmptyJobKey   = errors.New("job key cannot be empty")
	ErrInvalidStatus = errors.New("invalid job status")
)

// Job is an immutable unit of work. Two jobs are equal when key, mode and
// payload are equal.
type Job struct {
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
	Mode    Mode   `json:"mode"`
}

// NewJob creates a Job holding its own copy of payload.
func NewJob(key string, payload []byte, mode Mode) (Job, error) {
	job := Job{
		Key:     key,
		Payload: bytes.Clone(payload),
		Mode:    mode,
	}

	if err := job.Validate(); err != nil {
		return Job{}, err
	}

	return job, nil
}

// Validate checks that the job can be tracked by key.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Key) == "" {
		return ErrEmptyJobKey
	}
	return nil
}

// Equal reports whether two jobs carry the same key, mode and payload.
func (j Job) Equal(other Job) bool {
	return j.Key == other.Key &&
		j.Mode == other.Mode &&
		bytes.Equal(j.Payload, other.Payload)
}

// IsValid reports whether s is one of the known job statuses.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusDone:
		return true
	default:
		return false
	}
}

// ParseJobStatus converts a string into a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	status := JobStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
	}
	return status, nil
}
