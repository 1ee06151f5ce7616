package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/strategy"
)

// Rollout contains activities that drive the hosting platform.
type Rollout struct {
	executor *strategy.Executor
	backups  BackupService
	logger   zerolog.Logger
}

func NewRollout(executor *strategy.Executor, backups BackupService, logger zerolog.Logger) *Rollout {
	return &Rollout{
		executor: executor,
		backups:  backups,
		logger:   logger.With().Str("component", "rollout-activity").Logger(),
	}
}

// ExecuteStrategyParams holds the parameters for ExecuteStrategy.
type ExecuteStrategyParams struct {
	Strategy string          `json:"strategy"`
	Target   strategy.Target `json:"target"`
}

// ExecuteStrategy rolls the target out using the named strategy, recording a
// heartbeat after each completed step.
func (a *Rollout) ExecuteStrategy(ctx context.Context, params ExecuteStrategyParams) error {
	log := a.logger.With().Str("deployment_id", params.Target.DeploymentID).Str("strategy", params.Strategy).Logger()
	log.Info().Msg("executing rollout strategy")

	err := a.executor.Execute(ctx, params.Strategy, params.Target, func(step strategy.Step) {
		activity.RecordHeartbeat(ctx, step.Index)
		log.Info().Int("step", step.Index).Str("action", step.Action).Int("traffic_percent", step.TrafficPercent).Msg("rollout step ready")
	})
	if err != nil {
		log.Error().Err(err).Msg("rollout strategy failed")
		return err
	}
	return nil
}

// RevertParams holds the parameters for RevertDeployment.
type RevertParams struct {
	Target     strategy.Target `json:"target"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
}

// RevertDeployment routes traffic back to the previous version and restores
// the pre-deploy snapshot when there is one. Both are attempted even if the
// first fails.
func (a *Rollout) RevertDeployment(ctx context.Context, params RevertParams) error {
	var errs []error
	if err := a.executor.Revert(ctx, params.Target); err != nil {
		errs = append(errs, fmt.Errorf("platform revert: %w", err))
	}
	if params.SnapshotID != "" {
		if err := a.backups.RestoreSnapshot(ctx, params.SnapshotID); err != nil {
			errs = append(errs, fmt.Errorf("restore snapshot %s: %w", params.SnapshotID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", model.ErrRollbackFailure, errors.Join(errs...))
	}
	return nil
}

// EvaluateTriggersParams holds the parameters for EvaluateRollbackTriggers.
type EvaluateTriggersParams struct {
	Target   strategy.Target         `json:"target"`
	Triggers []model.RollbackTrigger `json:"triggers"`
}

// TriggerEvaluation reports whether any rollback trigger fired.
type TriggerEvaluation struct {
	Fired  bool   `json:"fired"`
	Reason string `json:"reason,omitempty"`
}

// EvaluateRollbackTriggers reads each trigger's metric over its window and
// fires on the first value above the threshold.
func (a *Rollout) EvaluateRollbackTriggers(ctx context.Context, params EvaluateTriggersParams) (*TriggerEvaluation, error) {
	for _, trig := range params.Triggers {
		window := time.Duration(trig.TimeWindowMinutes) * time.Minute
		if window <= 0 {
			window = 5 * time.Minute
		}
		value, err := a.executor.Metric(ctx, params.Target, trig.Type, window)
		if err != nil {
			return nil, err
		}
		if value > trig.Threshold {
			return &TriggerEvaluation{
				Fired:  true,
				Reason: fmt.Sprintf("rollback trigger %s fired: %g exceeds threshold %g over %s", trig.Type, value, trig.Threshold, window),
			}, nil
		}
	}
	return &TriggerEvaluation{}, nil
}
