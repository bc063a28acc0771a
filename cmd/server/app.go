package main

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/cache"
	"github.com/phrazzld/jobd/internal/config"
	"github.com/phrazzld/jobd/internal/events"
	"github.com/phrazzld/jobd/internal/platform/engine"
	"github.com/phrazzld/jobd/internal/service"
	"github.com/phrazzld/jobd/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	engine       *engine.Engine
	eventEmitter *events.InMemoryEventEmitter
	jobService   *service.JobService
}

// newApplication creates a new application instance with all dependencies
// initialized. The job service's workers are started by Run.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	app.engine = engine.NewDefault(logger)
	logger.Info("computation engine initialized",
		"modes", app.engine.Modes(),
		"max_strategies", app.engine.StrategyCount())

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(&eventLogHandler{
		logger: logger.With("component", "job_event_log"),
	})

	svcCfg, err := jobServiceConfig(cfg)
	if err != nil {
		return nil, err
	}

	app.jobService, err = service.NewJobService(app.engine, svcCfg, app.eventEmitter, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create job service")
	}

	logger.Info("Application initialized successfully", "workers", app.jobService.Workers())
	return app, nil
}

// jobServiceConfig translates the loaded configuration into service settings.
func jobServiceConfig(cfg *config.Config) (service.Config, error) {
	keys, err := service.NewKeyGenerator(cfg.Jobs.KeyFormat, cfg.Jobs.KeyLength)
	if err != nil {
		return service.Config{}, errors.Wrap(err, "failed to create key generator")
	}

	return service.Config{
		QueueCapacity: cfg.Jobs.QueueCapacity,
		Pool: task.WorkerPoolConfig{
			WorkerCount: cfg.Jobs.WorkerCount,
			Sizing: task.SizingPolicy{
				FanoutFactor:  cfg.Jobs.FanoutFactor,
				StrategyCount: cfg.Jobs.StrategyCount,
			},
		},
		StatusCache: cache.Config{
			Name:    "status",
			IdleTTL: cfg.Cache.StatusIdleTTL,
			AgeTTL:  cfg.Cache.StatusAgeTTL,
		},
		ResultCache: cache.Config{
			Name:    "result",
			IdleTTL: cfg.Cache.ResultIdleTTL,
			AgeTTL:  cfg.Cache.ResultAgeTTL,
		},
		StatsTTL: cfg.Cache.StatsTTL,
		Keys:     keys,
	}, nil
}

// Run starts the workers and serves HTTP until ctx is cancelled or a
// shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	app.jobService.Start()

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return errors.Wrap(err, "server error")
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobService != nil {
		app.logger.Info("stopping job service")
		app.jobService.Stop()
	}
}

// eventLogHandler logs every job lifecycle event at debug level.
type eventLogHandler struct {
	logger *slog.Logger
}

// HandleEvent implements events.EventHandler.
func (h *eventLogHandler) HandleEvent(ctx context.Context, event *events.JobEvent) error {
	h.logger.DebugContext(ctx, "job event",
		"event_id", event.ID,
		"event_type", event.Type,
		"job_key", event.JobKey,
		"mode", event.Mode,
		"failed", event.Failed)
	return nil
}
