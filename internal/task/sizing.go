package task

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// MinPoolSize is the smallest pool PoolSize will derive.
const MinPoolSize = 2

// SizingPolicy holds the inputs used to derive a worker count.
//
// Each job's computation may run its own strategies in parallel, so the
// outer pool is under-subscribed by FanoutFactor × StrategyCount.
type SizingPolicy struct {
	// Parallelism is the number of hardware threads; 0 means detect.
	Parallelism int

	// FanoutFactor multiplies the strategy count in the divisor; values
	// below 1 are treated as 1.
	FanoutFactor int

	// StrategyCount is the number of strategies each job fans out over;
	// values below 1 are treated as 1.
	StrategyCount int
}

// DefaultSizingPolicy detects parallelism and assumes a fan-out factor of 2
// over a single strategy.
func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{
		FanoutFactor:  2,
		StrategyCount: 1,
	}
}

// PoolSize returns Parallelism / (FanoutFactor × StrategyCount), floored at
// MinPoolSize.
func PoolSize(policy SizingPolicy) int {
	parallelism := policy.Parallelism
	if parallelism <= 0 {
		parallelism = HardwareParallelism()
	}

	divisor := max(policy.FanoutFactor, 1) * max(policy.StrategyCount, 1)
	return max(parallelism/divisor, MinPoolSize)
}

// HardwareParallelism reports the number of logical CPUs, falling back to the
// Go runtime's view when the host cannot be queried.
func HardwareParallelism() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// StrategyCountOf returns the strategy count advertised by c, or 1 when c
// does not implement StrategyCounter.
func StrategyCountOf(c Computation) int {
	if sc, ok := c.(StrategyCounter); ok && sc.StrategyCount() > 0 {
		return sc.StrategyCount()
	}
	return 1
}
