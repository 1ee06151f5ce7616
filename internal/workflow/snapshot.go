package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/model"
)

type snapshotResult struct {
	id  string
	err error
}

// snapshotTask is the best-effort pre-deploy snapshot running in its own
// coroutine. Its failure never reaches the pipeline.
type snapshotTask struct {
	ch       workflow.Channel
	received bool
	id       string
}

// startSnapshot takes the pre-deploy snapshot in the background. A successful
// snapshot is recorded on the deployment; a failed one is logged as a warning.
func (r *deploymentRun) startSnapshot(ctx workflow.Context) {
	task := &snapshotTask{ch: workflow.NewBufferedChannel(ctx, 1)}
	r.snapshot = task

	workflow.Go(ctx, func(gctx workflow.Context) {
		var id string
		err := workflow.ExecuteActivity(withBackupOptions(gctx), "CreatePreDeploySnapshot", activity.SnapshotParams{
			DeploymentID: r.dep.ID,
			ConfigName:   r.dep.ConfigName,
			Targets:      r.cfg.BackupTargets,
		}).Get(gctx, &id)
		if err == nil {
			err = workflow.ExecuteActivity(withStoreOptions(gctx), "SetSnapshot", activity.SetSnapshotParams{
				DeploymentID: r.dep.ID,
				SnapshotID:   id,
			}).Get(gctx, nil)
		}
		if err != nil && !isCanceled(gctx, err) {
			r.log(gctx, model.LogWarn, model.PhasePreDeploy, "Pre-deploy snapshot failed, continuing without it: "+errMessage(err))
			id = ""
		}
		task.ch.Send(gctx, snapshotResult{id: id, err: err})
	})
}

// wait blocks until the snapshot coroutine has finished and returns the
// snapshot id, or "" when there is none.
func (t *snapshotTask) wait(ctx workflow.Context) string {
	if t == nil {
		return ""
	}
	if !t.received {
		var res snapshotResult
		t.ch.Receive(ctx, &res)
		t.received = true
		if res.err == nil {
			t.id = res.id
		}
	}
	return t.id
}
