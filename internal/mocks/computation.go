package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/jobd/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockComputation implements task.Computation and task.StrategyCounter for
// testing
type MockComputation struct {
	// ComputeFn allows test cases to mock the Compute behavior
	ComputeFn func(ctx context.Context, payload []byte, mode domain.Mode) (domain.Result, error)

	// Default response values
	Result domain.Result
	Err    error

	// Strategies is returned from StrategyCount
	Strategies int

	// Call tracking for verification
	ComputeCalls struct {
		// mu protects the call tracking state for concurrent workers
		mu sync.Mutex

		// Count tracks how many times Compute was called
		Count int

		// Payloads contains all payloads passed to Compute calls
		Payloads [][]byte

		// Modes contains all modes passed to Compute calls
		Modes []domain.Mode
	}
}

// Compute implements the task.Computation interface
func (m *MockComputation) Compute(
	ctx context.Context,
	payload []byte,
	mode domain.Mode,
) (domain.Result, error) {
	m.ComputeCalls.mu.Lock()
	m.ComputeCalls.Count++
	m.ComputeCalls.Payloads = append(m.ComputeCalls.Payloads, payload)
	m.ComputeCalls.Modes = append(m.ComputeCalls.Modes, mode)
	m.ComputeCalls.mu.Unlock()

	if m.ComputeFn != nil {
		return m.ComputeFn(ctx, payload, mode)
	}

	return m.Result, m.Err
}

// StrategyCount implements the task.StrategyCounter interface
func (m *MockComputation) StrategyCount() int {
	return m.Strategies
}

// CallCount returns the number of Compute calls so far
func (m *MockComputation) CallCount() int {
	m.ComputeCalls.mu.Lock()
	defer m.ComputeCalls.mu.Unlock()
	return m.ComputeCalls.Count
}

// TestifyMockComputation is a mock of task.Computation for use with testify/mock
type TestifyMockComputation struct {
	mock.Mock
}

// Compute is a mock implementation of task.Computation.Compute
func (m *TestifyMockComputation) Compute(
	ctx context.Context,
	payload []byte,
	mode domain.Mode,
) (domain.Result, error) {
	args := m.Called(ctx, payload, mode)
	result, _ := args.Get(0).(domain.Result)
	return result, args.Error(1)
}
