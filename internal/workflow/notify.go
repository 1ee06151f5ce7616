package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/model"
)

// notify dispatches a lifecycle event to the rules subscribed to it.
// Delivery is fire-and-forget.
func (r *deploymentRun) notify(ctx workflow.Context, event, message, approverID string) {
	subscribed := false
	for _, rule := range r.cfg.Notifications {
		if rule.Matches(event) {
			subscribed = true
			break
		}
	}
	if !subscribed {
		return
	}

	ev := model.NotificationEvent{
		DeploymentID: r.dep.ID,
		Event:        event,
		Environment:  r.dep.Environment,
		Timestamp:    workflow.Now(ctx),
		ConfigName:   r.dep.ConfigName,
		Version:      r.dep.Version,
		Status:       r.status,
		Message:      message,
		ApproverID:   approverID,
	}
	var sent int
	err := workflow.ExecuteActivity(withSingleAttempt(ctx, notifyActivityTimeout), "DispatchNotification", activity.DispatchParams{
		Rules: r.cfg.Notifications,
		Event: ev,
	}).Get(ctx, &sent)
	if err != nil {
		workflow.GetLogger(ctx).Warn("notification dispatch failed", "deployment_id", r.dep.ID, "event", event, "error", err)
	}
}
