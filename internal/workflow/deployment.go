package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/strategy"
)

// StatusQuery is the query that returns a running deployment's status.
const StatusQuery = "status"

const (
	defaultMaxDeploymentDuration = 6 * time.Hour
	defaultCheckPollInterval     = 5 * time.Second
	defaultStabilizationDelay    = 30 * time.Second
	strategyActivityTimeout      = time.Hour
	notifyActivityTimeout        = time.Minute
)

// deploymentRun is the workflow's in-memory view of one deployment.
type deploymentRun struct {
	dep      model.Deployment
	cfg      model.DeploymentConfig
	settings activity.EngineSettings
	status   string
	snapshot *snapshotTask
}

// DeploymentWorkflow drives one deployment from approval through rollout,
// validation and, when needed, rollback. It is started with workflow id
// "deployment-<id>" and accepts the approval-decision and rollback-decision
// signals.
//
// The whole run is bounded by the config's MaxDeploymentMinutes (or the
// engine default). When that expires the pipeline is cancelled and the
// deployment is failed.
func DeploymentWorkflow(ctx workflow.Context, deploymentID string) error {
	logger := workflow.GetLogger(ctx)

	var dc activity.DeploymentContext
	err := workflow.ExecuteActivity(withStoreOptions(ctx), "GetDeploymentContext", deploymentID).Get(ctx, &dc)
	if err != nil {
		return fmt.Errorf("load deployment %s: %w", deploymentID, err)
	}

	r := &deploymentRun{
		dep:      dc.Deployment,
		cfg:      dc.Config,
		settings: dc.Settings,
		status:   dc.Deployment.Status,
	}
	if model.IsTerminal(r.status) {
		logger.Info("deployment already finished", "deployment_id", deploymentID, "status", r.status)
		return nil
	}

	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (string, error) {
		return r.status, nil
	}); err != nil {
		return err
	}

	r.notify(ctx, model.EventStarted, "", "")

	limit := r.maxDuration()
	runCtx, cancelRun := workflow.WithCancel(ctx)
	watchCtx, stopWatchdog := workflow.WithCancel(ctx)
	expired := false
	workflow.Go(watchCtx, func(gctx workflow.Context) {
		if err := workflow.NewTimer(gctx, limit).Get(gctx, nil); err == nil {
			expired = true
			cancelRun()
		}
	})

	err = r.run(runCtx)
	stopWatchdog()
	cancelRun()

	switch {
	case expired:
		logger.Warn("deployment exceeded maximum duration", "deployment_id", deploymentID, "limit", limit)
		r.abort(ctx, fmt.Sprintf("Deployment exceeded maximum duration of %s", limit))
	case err != nil:
		logger.Error("deployment run aborted", "deployment_id", deploymentID, "error", err)
		r.abort(ctx, "Deployment aborted: "+errMessage(err))
		return err
	}

	r.archive(ctx)
	return nil
}

// run advances the deployment from its current status to a terminal one.
func (r *deploymentRun) run(ctx workflow.Context) error {
	if r.status == model.StatusPendingApproval {
		proceed, err := r.awaitApproval(ctx)
		if err != nil || !proceed {
			return err
		}
	}

	switch r.status {
	case model.StatusApproved:
		if err := r.transition(ctx, model.StatusDeploying, ""); err != nil {
			return err
		}
		return r.deploy(ctx)
	case model.StatusDeploying:
		return r.deploy(ctx)
	case model.StatusRollingBack:
		return r.rollback(ctx, rollbackTriggeredAutomatic, "resuming interrupted rollback")
	default:
		return r.fail(ctx, fmt.Sprintf("cannot resume deployment in status %s", r.status))
	}
}

// deploy runs the pipeline from the deploying status: snapshot, pre-deploy
// checks, strategy, stabilization and post-deploy validation.
func (r *deploymentRun) deploy(ctx workflow.Context) error {
	r.startSnapshot(ctx)

	passed, err := r.runChecks(ctx, model.PhasePreDeploy, r.cfg.PreDeployChecks)
	if err != nil {
		return err
	}
	if !passed {
		return r.fail(ctx, "Pre-deployment checks failed")
	}

	if err := r.transition(ctx, model.StatusTesting, ""); err != nil {
		return err
	}

	r.log(ctx, model.LogInfo, "", fmt.Sprintf("Executing %s strategy for version %s", r.dep.Strategy, r.dep.Version))
	err = workflow.ExecuteActivity(withSingleAttempt(ctx, strategyActivityTimeout), "ExecuteStrategy", activity.ExecuteStrategyParams{
		Strategy: r.dep.Strategy,
		Target:   r.target(),
	}).Get(ctx, nil)
	if err != nil {
		if isCanceled(ctx, err) {
			return err
		}
		return r.fail(ctx, "Strategy execution failed: "+errMessage(err))
	}

	delay := r.stabilizationDelay()
	r.log(ctx, model.LogInfo, "", fmt.Sprintf("Waiting %s for stabilization", delay))
	if err := workflow.Sleep(ctx, delay); err != nil {
		return err
	}

	passed, err = r.runChecks(ctx, model.PhasePostDeploy, r.cfg.PostDeployChecks)
	if err != nil {
		return err
	}
	reason := "Post-deployment checks failed"

	policy := r.cfg.RollbackPolicy
	if passed && policy.Enabled && len(policy.AutomaticTriggers) > 0 {
		var eval activity.TriggerEvaluation
		err := workflow.ExecuteActivity(withCheckPollOptions(ctx), "EvaluateRollbackTriggers", activity.EvaluateTriggersParams{
			Target:   r.target(),
			Triggers: policy.AutomaticTriggers,
		}).Get(ctx, &eval)
		switch {
		case err != nil && isCanceled(ctx, err):
			return err
		case err != nil:
			r.log(ctx, model.LogWarn, model.PhasePostDeploy, "Could not evaluate rollback triggers: "+errMessage(err))
		case eval.Fired:
			passed = false
			reason = eval.Reason
		}
	}

	if passed {
		return r.complete(ctx)
	}
	return r.handlePostDeployFailure(ctx, reason)
}

func (r *deploymentRun) complete(ctx workflow.Context) error {
	r.snapshot.wait(ctx)
	if err := r.transition(ctx, model.StatusCompleted, ""); err != nil {
		return err
	}
	r.notify(ctx, model.EventCompleted, "", "")
	return nil
}

// fail moves the deployment to failed and notifies.
func (r *deploymentRun) fail(ctx workflow.Context, message string) error {
	r.snapshot.wait(ctx)
	if err := r.transition(ctx, model.StatusFailed, message); err != nil {
		return err
	}
	r.notify(ctx, model.EventFailed, message, "")
	return nil
}

// abort puts a deployment whose pipeline was cut short into a terminal state.
// It runs on a disconnected context so it also works after cancellation.
func (r *deploymentRun) abort(ctx workflow.Context, message string) {
	if model.IsTerminal(r.status) {
		return
	}
	ctx, _ = workflow.NewDisconnectedContext(ctx)

	to, event := model.StatusFailed, model.EventFailed
	if r.status == model.StatusRollingBack {
		to, event = model.StatusRolledBack, model.EventRolledBack
	}
	if err := r.transition(ctx, to, message); err != nil {
		workflow.GetLogger(ctx).Error("failed to abort deployment", "deployment_id", r.dep.ID, "error", err)
		return
	}
	r.notify(ctx, event, message, "")
}

// transition persists a status change. Repeating the current status is a no-op
// in the activity.
func (r *deploymentRun) transition(ctx workflow.Context, to, message string) error {
	err := workflow.ExecuteActivity(withStoreOptions(ctx), "TransitionDeployment", activity.TransitionParams{
		DeploymentID: r.dep.ID,
		To:           to,
		Message:      message,
	}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("transition deployment %s to %s: %w", r.dep.ID, to, err)
	}
	r.status = to
	return nil
}

// log appends to the deployment log. Failures are only reported to the
// workflow logger.
func (r *deploymentRun) log(ctx workflow.Context, level, phase, message string) {
	err := workflow.ExecuteActivity(withStoreOptions(ctx), "AppendDeploymentLog", activity.AppendLogParams{
		DeploymentID: r.dep.ID,
		Level:        level,
		Phase:        phase,
		Message:      message,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("failed to append deployment log", "deployment_id", r.dep.ID, "error", err)
	}
}

func (r *deploymentRun) archive(ctx workflow.Context) {
	var uri string
	err := workflow.ExecuteActivity(withArchiveOptions(ctx), "ArchiveDeployment", r.dep.ID).Get(ctx, &uri)
	if err != nil {
		workflow.GetLogger(ctx).Warn("failed to archive deployment", "deployment_id", r.dep.ID, "error", err)
	}
}

func (r *deploymentRun) target() strategy.Target {
	return strategy.Target{
		DeploymentID:    r.dep.ID,
		Environment:     r.dep.Environment,
		Version:         r.dep.Version,
		PreviousVersion: r.dep.PreviousVersion,
		Options:         r.cfg.StrategyOptions,
	}
}

func (r *deploymentRun) maxDuration() time.Duration {
	if r.cfg.MaxDeploymentMinutes > 0 {
		return time.Duration(r.cfg.MaxDeploymentMinutes) * time.Minute
	}
	if r.settings.MaxDeploymentDuration > 0 {
		return r.settings.MaxDeploymentDuration
	}
	return defaultMaxDeploymentDuration
}

func (r *deploymentRun) stabilizationDelay() time.Duration {
	if r.cfg.StabilizationSeconds > 0 {
		return time.Duration(r.cfg.StabilizationSeconds) * time.Second
	}
	if r.settings.StabilizationDelay > 0 {
		return r.settings.StabilizationDelay
	}
	return defaultStabilizationDelay
}

func (r *deploymentRun) pollInterval() time.Duration {
	if r.settings.CheckPollInterval > 0 {
		return r.settings.CheckPollInterval
	}
	return defaultCheckPollInterval
}

func (r *deploymentRun) minSuccessRate() float64 {
	if r.settings.MinSuccessRate > 0 {
		return r.settings.MinSuccessRate
	}
	return 0.9
}
