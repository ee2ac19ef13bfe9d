package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"purlmatch/internal/config"
	"purlmatch/internal/logging"
)

// Step is one named unit of pipeline work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes steps in order under the workspace lock.
type Runner struct {
	steps  []Step
	lock   *flock.Flock
	logger *slog.Logger
}

// NewRunner constructs a runner for the given steps. The lock file lives in
// the configured workspace directory.
func NewRunner(cfg *config.Config, logger *slog.Logger, steps []Step) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		steps:  steps,
		lock:   flock.New(cfg.LockPath()),
		logger: logger,
	}
}

// Run executes every step in order, stopping at the first failure. Each run
// acquires the workspace lock and is tagged with a fresh run identifier.
func (r *Runner) Run(ctx context.Context) error {
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return errors.New("another pipeline run is already in progress")
	}
	defer func() { _ = r.lock.Unlock() }()

	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("pipeline run started", logging.Int("steps", len(r.steps)))
	started := time.Now()

	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepLogger := logger.With(logging.String(logging.FieldStep, step.Name))
		stepLogger.Info("step started")
		stepStart := time.Now()

		if err := step.Run(ctx); err != nil {
			stepLogger.Error("step failed",
				logging.Error(err),
				logging.Duration("elapsed", time.Since(stepStart)),
			)
			return fmt.Errorf("step %s: %w", step.Name, err)
		}

		stepLogger.Info("step finished", logging.Duration("elapsed", time.Since(stepStart)))
	}

	logger.Info("pipeline run finished", logging.Duration("elapsed", time.Since(started)))
	return nil
}
