package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/jobd/internal/domain"
	"github.com/phrazzld/jobd/internal/mocks"
	"github.com/phrazzld/jobd/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	_ task.Computation     = (*mocks.MockComputation)(nil)
	_ task.StrategyCounter = (*mocks.MockComputation)(nil)
	_ task.Computation     = (*mocks.TestifyMockComputation)(nil)
)

func TestMockComputation(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		m := &mocks.MockComputation{Result: domain.NewResult([]byte("ok"))}

		res, err := m.Compute(context.Background(), []byte("in"), "echo")
		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), res.Output)
		assert.Equal(t, 1, m.CallCount())
		assert.Equal(t, []domain.Mode{"echo"}, m.ComputeCalls.Modes)
	})

	t.Run("custom function", func(t *testing.T) {
		m := &mocks.MockComputation{
			ComputeFn: func(_ context.Context, payload []byte, _ domain.Mode) (domain.Result, error) {
				return domain.Result{}, errors.New(string(payload))
			},
		}

		_, err := m.Compute(context.Background(), []byte("bad input"), "sort")
		assert.EqualError(t, err, "bad input")
	})
}

func TestTestifyMockComputation(t *testing.T) {
	m := new(mocks.TestifyMockComputation)
	m.On("Compute", mock.Anything, []byte("x"), domain.Mode("echo")).
		Return(domain.NewResult([]byte("y")), nil).Once()

	res, err := m.Compute(context.Background(), []byte("x"), "echo")
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), res.Output)
	m.AssertExpectations(t)
}
