package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/domain"
)

// Built-in modes.
const (
	ModeEcho     domain.Mode = "echo"
	ModeChecksum domain.Mode = "checksum"
	ModeSort     domain.Mode = "sort"
)

// MaxSortElements bounds the sort payload; insertion sort is quadratic.
const MaxSortElements = 10000

// ErrInvalidPayload is returned when a payload cannot be decoded for its mode.
var ErrInvalidPayload = errors.New("invalid payload")

// Checksum is the output of the checksum mode.
type Checksum struct {
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

// NewDefault returns an Engine with the built-in modes registered.
func NewDefault(logger *slog.Logger) *Engine {
	e := New(logger)
	// Registration of fixed, distinct built-ins cannot fail.
	_ = e.Register(ModeEcho, Strategy{Name: "echo", Run: echo})
	_ = e.Register(ModeChecksum, Strategy{Name: "sha256", Run: checksum})
	_ = e.RegisterConsensus(ModeSort,
		Strategy{Name: "insertion", Run: sortWith(insertionSort)},
		Strategy{Name: "stdlib", Run: sortWith(slices.Sort[[]float64])},
	)
	return e
}

func echo(_ context.Context, payload []byte) ([]byte, error) {
	return bytes.Clone(payload), nil
}

func checksum(_ context.Context, payload []byte) ([]byte, error) {
	sum := sha256.Sum256(payload)
	out, err := json.Marshal(Checksum{
		SHA256: hex.EncodeToString(sum[:]),
		Size:   len(payload),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode checksum")
	}
	return out, nil
}

func sortWith(sortFn func([]float64)) StrategyFunc {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var numbers []float64
		if err := json.Unmarshal(payload, &numbers); err != nil {
			return nil, errors.Wrap(ErrInvalidPayload, "sort expects a JSON array of numbers")
		}
		if len(numbers) > MaxSortElements {
			return nil, errors.Wrapf(ErrInvalidPayload, "sort accepts at most %d numbers", MaxSortElements)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sortFn(numbers)

		out, err := json.Marshal(numbers)
		if err != nil {
			return nil, errors.Wrap(err, "encode sorted numbers")
		}
		return out, nil
	}
}

func insertionSort(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
