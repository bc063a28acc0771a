package task

import (
	"context"
	"testing"

	"github.com/phrazzld/jobd/internal/domain"
	"github.com/stretchr/testify/assert"
)

type countingComputation struct {
	ComputationFunc
	strategies int
}

func (c countingComputation) StrategyCount() int { return c.strategies }

func TestPoolSize(t *testing.T) {
	tests := []struct {
		name   string
		policy SizingPolicy
		want   int
	}{
		{name: "divides by fanout times strategies", policy: SizingPolicy{Parallelism: 32, FanoutFactor: 2, StrategyCount: 4}, want: 4},
		{name: "floors at minimum", policy: SizingPolicy{Parallelism: 4, FanoutFactor: 2, StrategyCount: 3}, want: MinPoolSize},
		{name: "zero factors treated as one", policy: SizingPolicy{Parallelism: 6}, want: 6},
		{name: "custom divisor", policy: SizingPolicy{Parallelism: 64, FanoutFactor: 1, StrategyCount: 8}, want: 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PoolSize(tc.policy))
		})
	}
}

func TestPoolSize_DetectsParallelism(t *testing.T) {
	size := PoolSize(DefaultSizingPolicy())
	assert.GreaterOrEqual(t, size, MinPoolSize)
	assert.Positive(t, HardwareParallelism())
}

func TestStrategyCountOf(t *testing.T) {
	plain := ComputationFunc(func(context.Context, []byte, domain.Mode) (domain.Result, error) {
		return domain.Result{}, nil
	})
	assert.Equal(t, 1, StrategyCountOf(plain))
	assert.Equal(t, 3, StrategyCountOf(countingComputation{ComputationFunc: plain, strategies: 3}))
	assert.Equal(t, 1, StrategyCountOf(countingComputation{ComputationFunc: plain, strategies: 0}))
}
