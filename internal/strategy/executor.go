package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edvin/rollout/internal/model"
)

// DefaultReadyInterval is how often the executor polls Platform.Ready.
const DefaultReadyInterval = 2 * time.Second

// Executor runs strategy plans against a platform.
type Executor struct {
	registry      *Registry
	platform      Platform
	readyInterval time.Duration
}

func NewExecutor(registry *Registry, platform Platform, readyInterval time.Duration) *Executor {
	if readyInterval <= 0 {
		readyInterval = DefaultReadyInterval
	}
	return &Executor{registry: registry, platform: platform, readyInterval: readyInterval}
}

// Execute applies every step of the named strategy's plan in order, waiting
// for each to become ready. progress is called after each completed step.
// All failures, including the strategy timeout, wrap model.ErrStrategyExecution.
func (e *Executor) Execute(ctx context.Context, name string, t Target, progress func(Step)) error {
	s, err := e.registry.Get(name)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStrategyExecution, err)
	}

	steps, err := s.Plan(t)
	if err != nil {
		return fmt.Errorf("%w: plan %s: %v", model.ErrStrategyExecution, name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout())
	defer cancel()

	for _, step := range steps {
		if err := e.runStep(ctx, step); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s timed out after %s at step %d (%s)",
					model.ErrStrategyExecution, name, s.Timeout(), step.Index, step.Action)
			}
			return fmt.Errorf("%w: %s step %d (%s): %v", model.ErrStrategyExecution, name, step.Index, step.Action, err)
		}
		if progress != nil {
			progress(step)
		}
		if step.Pause > 0 {
			if err := sleep(ctx, step.Pause); err != nil {
				return fmt.Errorf("%w: %s interrupted after step %d: %v", model.ErrStrategyExecution, name, step.Index, err)
			}
		}
	}
	return nil
}

// Revert asks the platform to restore the previous version.
func (e *Executor) Revert(ctx context.Context, t Target) error {
	return e.platform.Revert(ctx, t)
}

// Metric reads a platform health metric.
func (e *Executor) Metric(ctx context.Context, t Target, name string, window time.Duration) (float64, error) {
	return e.platform.Metric(ctx, t, name, window)
}

// Strategies returns the registry the executor plans with.
func (e *Executor) Strategies() *Registry {
	return e.registry
}

func (e *Executor) runStep(ctx context.Context, step Step) error {
	if err := e.platform.Apply(ctx, step); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	ticker := time.NewTicker(e.readyInterval)
	defer ticker.Stop()
	for {
		ready, err := e.platform.Ready(ctx, step)
		if err != nil {
			return fmt.Errorf("readiness: %w", err)
		}
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
