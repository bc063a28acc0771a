package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Errors returned by Engine.
var (
	// ErrUnknownMode is returned when no strategy is registered for a mode.
	ErrUnknownMode = errors.New("unknown computation mode")

	// ErrStrategiesDisagree is returned by consensus modes whose strategies
	// produced different outputs.
	ErrStrategiesDisagree = errors.New("strategies produced different outputs")
)

// StrategyFunc computes an output from a payload.
type StrategyFunc func(ctx context.Context, payload []byte) ([]byte, error)

// Strategy is a named way of computing a mode's output.
type Strategy struct {
	Name string
	Run  StrategyFunc
}

type mode struct {
	strategies []Strategy
	consensus  bool
}

// Engine runs registered strategies for each mode. It is safe for concurrent
// use; registration is normally finished before the first Compute.
type Engine struct {
	mu     sync.RWMutex
	modes  map[domain.Mode]mode
	logger *slog.Logger
}

// New returns an Engine with no modes registered.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		modes:  make(map[domain.Mode]mode),
		logger: logger.With("component", "engine"),
	}
}

// Register adds strategies for m. Any strategy that succeeds answers the job.
func (e *Engine) Register(m domain.Mode, strategies ...Strategy) error {
	return e.register(m, false, strategies)
}

// RegisterConsensus adds strategies for m that must all succeed with
// identical outputs.
func (e *Engine) RegisterConsensus(m domain.Mode, strategies ...Strategy) error {
	return e.register(m, true, strategies)
}

func (e *Engine) register(m domain.Mode, consensus bool, strategies []Strategy) error {
	if m == "" {
		return errors.New("mode cannot be empty")
	}
	if len(strategies) == 0 {
		return errors.Newf("mode %q needs at least one strategy", m)
	}
	for i, s := range strategies {
		if s.Run == nil {
			return errors.Newf("strategy %d of mode %q has no function", i, m)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.modes[m]; exists {
		return errors.Newf("mode %q already registered", m)
	}
	e.modes[m] = mode{
		strategies: slices.Clone(strategies),
		consensus:  consensus,
	}
	e.logger.Debug("registered mode",
		"mode", m,
		"strategies", len(strategies),
		"consensus", consensus)
	return nil
}

// Modes returns the registered modes in sorted order.
func (e *Engine) Modes() []domain.Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()

	modes := make([]domain.Mode, 0, len(e.modes))
	for m := range e.modes {
		modes = append(modes, m)
	}
	slices.Sort(modes)
	return modes
}

// StrategyCount returns the largest number of strategies any mode fans out
// over. It implements task.StrategyCounter.
func (e *Engine) StrategyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := 0
	for _, m := range e.modes {
		n = max(n, len(m.strategies))
	}
	return n
}

// Compute implements task.Computation.
func (e *Engine) Compute(ctx context.Context, payload []byte, m domain.Mode) (domain.Result, error) {
	e.mu.RLock()
	md, ok := e.modes[m]
	e.mu.RUnlock()
	if !ok {
		return domain.Result{}, errors.Wrapf(ErrUnknownMode, "mode %q", m)
	}

	outputs := make([][]byte, len(md.strategies))
	errs := make([]error, len(md.strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range md.strategies {
		g.Go(func() error {
			out, err := runStrategy(gctx, s, payload)
			if err != nil {
				errs[i] = errors.Wrapf(err, "strategy %s", s.Name)
				if md.consensus {
					// One failure sinks a consensus mode; stop the rest.
					return errs[i]
				}
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Result{}, errors.Wrapf(err, "mode %q", m)
	}

	if md.consensus {
		for i := 1; i < len(outputs); i++ {
			if !bytes.Equal(outputs[0], outputs[i]) {
				return domain.Result{}, errors.Wrapf(ErrStrategiesDisagree,
					"mode %q: %s and %s", m, md.strategies[0].Name, md.strategies[i].Name)
			}
		}
		return domain.NewResult(outputs[0]), nil
	}

	for i, err := range errs {
		if err == nil {
			return domain.NewResult(outputs[i]), nil
		}
	}
	return domain.Result{}, errors.Wrapf(errs[0], "all %d strategies failed for mode %q", len(errs), m)
}

func runStrategy(ctx context.Context, s Strategy, payload []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panicked: %s", fmt.Sprint(r))
		}
	}()
	return s.Run(ctx, payload)
}
