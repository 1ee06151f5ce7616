package workflow

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/model"
)

const rollbackTriggeredAutomatic = "automatic"

// handlePostDeployFailure rolls the deployment back when the policy allows it
// and fails it otherwise. With ManualApprovalRequired the rollback waits for a
// rollback-decision signal.
func (r *deploymentRun) handlePostDeployFailure(ctx workflow.Context, reason string) error {
	policy := r.cfg.RollbackPolicy
	if !policy.Enabled {
		return r.fail(ctx, reason)
	}

	triggeredBy := rollbackTriggeredAutomatic
	if policy.ManualApprovalRequired {
		decision, err := r.awaitRollbackDecision(ctx, reason)
		if err != nil {
			return err
		}
		if decision == nil {
			return r.fail(ctx, fmt.Sprintf("Rollback decision timed out after %s: %s", policy.MaxRollbackTime(), reason))
		}
		if !decision.Approved {
			msg := fmt.Sprintf("Rollback declined by %s: %s", decision.DecidedBy, reason)
			if decision.Reason != "" {
				msg += " (" + decision.Reason + ")"
			}
			return r.fail(ctx, msg)
		}
		triggeredBy = decision.DecidedBy
	}
	return r.rollback(ctx, triggeredBy, reason)
}

// awaitRollbackDecision waits up to MaxRollbackTime for a rollback-decision
// signal. A nil decision means the wait timed out.
func (r *deploymentRun) awaitRollbackDecision(ctx workflow.Context, reason string) (*model.RollbackDecisionSignal, error) {
	wait := r.cfg.RollbackPolicy.MaxRollbackTime()
	r.log(ctx, model.LogWarn, model.PhasePostDeploy, fmt.Sprintf("Rollback requires manual approval (waiting up to %s): %s", wait, reason))

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	defer cancelTimer()

	var decision *model.RollbackDecisionSignal
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(workflow.GetSignalChannel(ctx, model.RollbackDecisionSignalName), func(c workflow.ReceiveChannel, _ bool) {
		var sig model.RollbackDecisionSignal
		c.Receive(ctx, &sig)
		decision = &sig
	})
	selector.AddFuture(workflow.NewTimer(timerCtx, wait), func(workflow.Future) {})
	selector.AddReceive(ctx.Done(), func(workflow.ReceiveChannel, bool) {})
	selector.Select(ctx)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return decision, nil
}

// rollback reverts the deployment to its previous version, records the
// outcome and ends in rolled_back whether or not the revert succeeded. It is
// never retried within a run.
func (r *deploymentRun) rollback(ctx workflow.Context, triggeredBy, reason string) error {
	if err := r.transition(ctx, model.StatusRollingBack, reason); err != nil {
		return err
	}
	snapshotID := r.snapshot.wait(ctx)

	start := workflow.Now(ctx)
	record := model.RollbackRecord{
		TriggeredBy:     triggeredBy,
		Reason:          reason,
		Timestamp:       start,
		PreviousVersion: r.dep.PreviousVersion,
	}
	err := workflow.ExecuteActivity(withSingleAttempt(ctx, r.cfg.RollbackPolicy.MaxRollbackTime()), "RevertDeployment", activity.RevertParams{
		Target:     r.target(),
		SnapshotID: snapshotID,
	}).Get(ctx, nil)
	if err != nil && isCanceled(ctx, err) {
		return err
	}
	record.RollbackDurationMS = workflow.Now(ctx).Sub(start).Milliseconds()
	record.Success = err == nil
	if err != nil {
		record.Error = errMessage(err)
		r.log(ctx, model.LogError, "", fmt.Sprintf("%s: %s", model.ErrTypeRollbackFailure, record.Error))
	}

	err = workflow.ExecuteActivity(withStoreOptions(ctx), "RecordRollback", activity.RecordRollbackParams{
		DeploymentID: r.dep.ID,
		Record:       record,
	}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("record rollback for %s: %w", r.dep.ID, err)
	}

	msg := "Rolled back to " + r.dep.PreviousVersion
	if r.dep.PreviousVersion == "" {
		msg = "Rolled back"
	}
	if !record.Success {
		msg = "Rollback failed: " + record.Error
	}
	if err := r.transition(ctx, model.StatusRolledBack, msg); err != nil {
		return err
	}
	r.notify(ctx, model.EventRolledBack, reason, "")
	return nil
}
