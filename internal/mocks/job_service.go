package mocks

import (
	"context"

	"github.com/phrazzld/jobd/internal/domain"
	"github.com/phrazzld/jobd/internal/service"
)

// MockJobService is a mock of the job service as seen by the HTTP handlers
type MockJobService struct {
	SubmitFn    func(ctx context.Context, payload []byte, mode domain.Mode) (string, error)
	GetStatusFn func(key string) (domain.JobStatus, bool)
	GetResultFn func(key string) (domain.Result, bool)
	StatsFn     func() (service.Stats, error)
}

// Submit calls SubmitFn, returning a fixed key when it is unset
func (m *MockJobService) Submit(ctx context.Context, payload []byte, mode domain.Mode) (string, error) {
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, payload, mode)
	}
	return "mock-key", nil
}

// GetStatus calls GetStatusFn, reporting absent when it is unset
func (m *MockJobService) GetStatus(key string) (domain.JobStatus, bool) {
	if m.GetStatusFn != nil {
		return m.GetStatusFn(key)
	}
	return "", false
}

// GetResult calls GetResultFn, reporting absent when it is unset
func (m *MockJobService) GetResult(key string) (domain.Result, bool) {
	if m.GetResultFn != nil {
		return m.GetResultFn(key)
	}
	return domain.Result{}, false
}

// Stats calls StatsFn, returning zero stats when it is unset
func (m *MockJobService) Stats() (service.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn()
	}
	return service.Stats{}, nil
}
