package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/jobd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobEvent(t *testing.T) {
	event := NewJobEvent(JobCompleted, "k3y", domain.Mode("sort"))

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, JobCompleted, event.Type)
	assert.Equal(t, "k3y", event.JobKey)
	assert.Equal(t, domain.Mode("sort"), event.Mode)
	assert.False(t, event.Failed)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"job.completed"`)
	assert.NotContains(t, string(data), "payload")
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu sync.Mutex
	// The last event received by this handler
	LastEvent *JobEvent
	// Error to return from HandleEvent
	HandlerError error
	// Number of times HandleEvent was called
	HandledCount int
}

// HandleEvent implements EventHandler
func (m *MockEventHandler) HandleEvent(_ context.Context, event *JobEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastEvent = event
	m.HandledCount++
	return m.HandlerError
}
