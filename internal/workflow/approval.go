package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/model"
)

// awaitApproval waits on approval-decision signals until the approval slots
// resolve or the approval timeout expires. It reports whether the deployment
// was approved; a rejected or timed out gate leaves it in rejected. The run is
// the only writer of approval slots: each accepted decision is stored here
// before it is announced.
func (r *deploymentRun) awaitApproval(ctx workflow.Context) (bool, error) {
	logger := workflow.GetLogger(ctx)
	signalCh := workflow.GetSignalChannel(ctx, model.ApprovalSignalName)

	var timer workflow.Future
	timeout := approvalTimeout(r.cfg.Approvals)
	if timeout > 0 {
		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		defer cancelTimer()
		timer = workflow.NewTimer(timerCtx, timeout)
	}

	for {
		switch outcome, decider := resolveApprovals(r.dep.Approvals); outcome {
		case model.DecisionApproved:
			return true, r.transition(ctx, model.StatusApproved, "")
		case model.DecisionRejected:
			return false, r.transition(ctx, model.StatusRejected, "Rejected by "+decider)
		}

		var sig model.ApprovalSignal
		received, timedOut := false, false

		selector := workflow.NewSelector(ctx)
		selector.AddReceive(signalCh, func(c workflow.ReceiveChannel, _ bool) {
			c.Receive(ctx, &sig)
			received = true
		})
		if timer != nil {
			selector.AddFuture(timer, func(f workflow.Future) {
				timedOut = f.Get(ctx, nil) == nil
			})
		}
		selector.AddReceive(ctx.Done(), func(workflow.ReceiveChannel, bool) {})
		selector.Select(ctx)

		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if timedOut {
			msg := "approval timed out"
			logger.Info("approval timed out", "deployment_id", r.dep.ID, "timeout", timeout)
			if err := r.transition(ctx, model.StatusRejected, msg); err != nil {
				return false, err
			}
			r.notify(ctx, model.EventRejected, msg, "")
			return false, nil
		}
		if !received {
			continue
		}

		now := workflow.Now(ctx)
		if !applyDecision(r.dep.Approvals, sig, now) {
			logger.Warn("ignoring approval decision without a pending slot", "deployment_id", r.dep.ID, "approver", sig.ApproverID)
			continue
		}
		err := workflow.ExecuteActivity(withStoreOptions(ctx), "RecordApprovalDecision", activity.RecordApprovalParams{
			DeploymentID: r.dep.ID,
			Decision:     sig,
			DecidedAt:    now,
		}).Get(ctx, nil)
		if err != nil {
			return false, fmt.Errorf("record approval decision from %s: %w", sig.ApproverID, err)
		}
		event := model.EventRejected
		if sig.Approved {
			event = model.EventApproved
		}
		r.notify(ctx, event, sig.Comments, sig.ApproverID)
	}
}

// applyDecision records the approver's decision on each of their pending
// slots and reports whether any slot changed.
func applyDecision(slots []model.ApprovalDecision, sig model.ApprovalSignal, now time.Time) bool {
	status := model.DecisionRejected
	if sig.Approved {
		status = model.DecisionApproved
	}
	changed := false
	for i := range slots {
		s := &slots[i]
		if s.ApproverID != sig.ApproverID || s.Status != model.DecisionPending {
			continue
		}
		decided := now
		s.Status = status
		s.DecidedAt = &decided
		s.Comments = sig.Comments
		changed = true
	}
	return changed
}

// resolveApprovals returns rejected (with the rejecting approver) as soon as
// any slot is rejected, approved once every slot is approved, and pending
// otherwise.
func resolveApprovals(slots []model.ApprovalDecision) (string, string) {
	pending := false
	for _, s := range slots {
		switch s.Status {
		case model.DecisionRejected:
			return model.DecisionRejected, s.ApproverID
		case model.DecisionPending:
			pending = true
		}
	}
	if pending {
		return model.DecisionPending, ""
	}
	return model.DecisionApproved, ""
}

// approvalTimeout is the smallest non-zero timeout across policies, or zero
// when no policy sets one.
func approvalTimeout(policies []model.ApprovalPolicy) time.Duration {
	var shortest time.Duration
	for _, p := range policies {
		if p.TimeoutMinutes <= 0 {
			continue
		}
		d := time.Duration(p.TimeoutMinutes) * time.Minute
		if shortest == 0 || d < shortest {
			shortest = d
		}
	}
	return shortest
}
