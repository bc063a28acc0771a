package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/domain"
	"github.com/phrazzld/jobd/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ task.Computation     = (*Engine)(nil)
	_ task.StrategyCounter = (*Engine)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixed(out string) StrategyFunc {
	return func(context.Context, []byte) ([]byte, error) { return []byte(out), nil }
}

func failing(msg string) StrategyFunc {
	return func(context.Context, []byte) ([]byte, error) { return nil, errors.New(msg) }
}

func TestEngine_Register(t *testing.T) {
	e := New(testLogger())

	require.NoError(t, e.Register("a", Strategy{Name: "one", Run: fixed("1")}))
	assert.Error(t, e.Register("a", Strategy{Name: "dup", Run: fixed("1")}), "duplicate mode")
	assert.Error(t, e.Register("", Strategy{Name: "x", Run: fixed("1")}), "empty mode")
	assert.Error(t, e.Register("b"), "no strategies")
	assert.Error(t, e.Register("c", Strategy{Name: "nil"}), "nil function")

	require.NoError(t, e.RegisterConsensus("d",
		Strategy{Name: "x", Run: fixed("1")},
		Strategy{Name: "y", Run: fixed("1")},
		Strategy{Name: "z", Run: fixed("1")},
	))

	assert.Equal(t, []domain.Mode{"a", "d"}, e.Modes())
	assert.Equal(t, 3, e.StrategyCount())
}

func TestEngine_Compute(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(testLogger()).Compute(ctx, nil, "missing")
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("first success in registration order", func(t *testing.T) {
		e := New(testLogger())
		require.NoError(t, e.Register("m",
			Strategy{Name: "broken", Run: failing("nope")},
			Strategy{Name: "second", Run: fixed("B")},
			Strategy{Name: "third", Run: fixed("C")},
		))

		res, err := e.Compute(ctx, nil, "m")
		require.NoError(t, err)
		assert.Equal(t, []byte("B"), res.Output)
	})

	t.Run("all strategies fail", func(t *testing.T) {
		e := New(testLogger())
		require.NoError(t, e.Register("m",
			Strategy{Name: "a", Run: failing("first")},
			Strategy{Name: "b", Run: failing("second")},
		))

		_, err := e.Compute(ctx, nil, "m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all 2 strategies failed")
		assert.Contains(t, err.Error(), "first")
	})

	t.Run("every strategy runs", func(t *testing.T) {
		var calls atomic.Int32
		count := func(context.Context, []byte) ([]byte, error) {
			calls.Add(1)
			return []byte("x"), nil
		}
		e := New(testLogger())
		require.NoError(t, e.Register("m",
			Strategy{Name: "a", Run: count},
			Strategy{Name: "b", Run: count},
			Strategy{Name: "c", Run: count},
		))

		_, err := e.Compute(ctx, nil, "m")
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("strategy panic is contained", func(t *testing.T) {
		e := New(testLogger())
		require.NoError(t, e.Register("m",
			Strategy{Name: "bad", Run: func(context.Context, []byte) ([]byte, error) { panic("boom") }},
			Strategy{Name: "good", Run: fixed("ok")},
		))

		res, err := e.Compute(ctx, nil, "m")
		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), res.Output)
	})

	t.Run("consensus disagreement", func(t *testing.T) {
		e := New(testLogger())
		require.NoError(t, e.RegisterConsensus("m",
			Strategy{Name: "a", Run: fixed("1")},
			Strategy{Name: "b", Run: fixed("2")},
		))

		_, err := e.Compute(ctx, nil, "m")
		assert.ErrorIs(t, err, ErrStrategiesDisagree)
	})

	t.Run("consensus failure", func(t *testing.T) {
		e := New(testLogger())
		require.NoError(t, e.RegisterConsensus("m",
			Strategy{Name: "a", Run: fixed("1")},
			Strategy{Name: "b", Run: failing("bad")},
		))

		_, err := e.Compute(ctx, nil, "m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strategy b")
	})
}

func TestBuiltins(t *testing.T) {
	e := NewDefault(testLogger())
	ctx := context.Background()

	assert.Equal(t, []domain.Mode{ModeChecksum, ModeEcho, ModeSort}, e.Modes())
	assert.Equal(t, 2, e.StrategyCount())

	t.Run("echo", func(t *testing.T) {
		res, err := e.Compute(ctx, []byte("hello"), ModeEcho)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), res.Output)
	})

	t.Run("checksum", func(t *testing.T) {
		res, err := e.Compute(ctx, []byte("abc"), ModeChecksum)
		require.NoError(t, err)

		var sum Checksum
		require.NoError(t, json.Unmarshal(res.Output, &sum))
		assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum.SHA256)
		assert.Equal(t, 3, sum.Size)
	})

	t.Run("sort", func(t *testing.T) {
		res, err := e.Compute(ctx, []byte(`[3, 1.5, -2, 10, 1.5]`), ModeSort)
		require.NoError(t, err)
		assert.JSONEq(t, `[-2, 1.5, 1.5, 3, 10]`, string(res.Output))
	})

	t.Run("sort rejects non-numeric payload", func(t *testing.T) {
		_, err := e.Compute(ctx, []byte(`["a", "b"]`), ModeSort)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}
