package domain

import (
	"bytes"
)

// Result is the outcome of running a job. A failed computation is reported
// through the same type with Failed set, so callers read results and failures
// from one place.
type Result struct {
	Output []byte `json:"output,omitempty"`
	Failed bool   `json:"failed"`
	Reason string `json:"reason,omitempty"`
}

// NewResult wraps a successful computation output.
func NewResult(output []byte) Result {
	return Result{Output: bytes.Clone(output)}
}

// Failure builds the sentinel result stored when a computation fails.
func Failure(err error) Result {
	reason := "computation failed"
	if err != nil {
		reason = err.Error()
	}
	return Result{
		Failed: true,
		Reason: reason,
	}
}

// IsFailure reports whether r is the failure sentinel.
func (r Result) IsFailure() bool {
	return r.Failed
}
