package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/jobd/internal/domain"
)

// EventType identifies a point in a job's lifecycle
type EventType string

// Job lifecycle event types
const (
	// JobSubmitted is emitted after a job has been accepted onto the queue
	JobSubmitted EventType = "job.submitted"

	// JobRejected is emitted when a submission is refused for capacity
	JobRejected EventType = "job.rejected"

	// JobCompleted is emitted after a job's result and DONE status are stored
	JobCompleted EventType = "job.completed"
)

// JobEvent describes a change in a job's lifecycle. It carries the job's
// identity but never its payload or output.
type JobEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened
	Type EventType `json:"type"`

	// JobKey is the key of the job concerned; empty for rejections
	JobKey string `json:"job_key,omitempty"`

	// Mode is the job's computation mode
	Mode domain.Mode `json:"mode"`

	// Failed is set on completion events whose result is the failure sentinel
	Failed bool `json:"failed,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewJobEvent creates a new JobEvent of the given type stamped with the
// wall clock. Emitters with their own clock overwrite CreatedAt.
func NewJobEvent(eventType EventType, jobKey string, mode domain.Mode) *JobEvent {
	return &JobEvent{
		ID:        uuid.New(),
		Type:      eventType,
		JobKey:    jobKey,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *JobEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *JobEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *JobEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *JobEvent) error
}
