package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/model"
)

// registerActivities registers activity structs with the test workflow
// environment so that parameter and return types can be deserialized correctly
// by the Temporal test framework. All activities are mocked via OnActivity.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.Store{})
	env.RegisterActivity(&activity.Backup{})
	env.RegisterActivity(&activity.Checks{})
	env.RegisterActivity(&activity.Rollout{})
	env.RegisterActivity(&activity.Notifier{})
	env.RegisterActivity(&activity.Archive{})
}

// recorder captures what the workflow wrote through the store and
// notification activities. Activities may run concurrently.
type recorder struct {
	mu         sync.Mutex
	statuses   []string
	messages   map[string]string
	logs       []activity.AppendLogParams
	checks     []model.CheckResult
	events     []model.NotificationEvent
	rollback   *model.RollbackRecord
	snapshotID string
	strategies int
	reverts    []activity.RevertParams
	approvals  []activity.RecordApprovalParams
	// trail lists stored approvals and sent notifications in order.
	trail       []string
	approvalErr error
}

func newRecorder() *recorder {
	return &recorder{messages: make(map[string]string)}
}

// mockPipeline mocks the store, snapshot, notification and archive
// activities with recording fakes.
func (r *recorder) mockPipeline(env *testsuite.TestWorkflowEnvironment) {
	env.OnActivity("TransitionDeployment", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.TransitionParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, p.To)
			r.messages[p.To] = p.Message
			return nil
		})
	env.OnActivity("AppendDeploymentLog", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.AppendLogParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.logs = append(r.logs, p)
			return nil
		})
	env.OnActivity("RecordApprovalDecision", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.RecordApprovalParams) (bool, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.approvalErr != nil {
				return false, r.approvalErr
			}
			r.approvals = append(r.approvals, p)
			r.trail = append(r.trail, "stored:"+p.Decision.ApproverID)
			return true, nil
		})
	env.OnActivity("UpdateCheckResult", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.UpdateCheckResultParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.checks = append(r.checks, p.Result)
			return nil
		})
	env.OnActivity("SetSnapshot", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.SetSnapshotParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.snapshotID = p.SnapshotID
			return nil
		})
	env.OnActivity("RecordRollback", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.RecordRollbackParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			rec := p.Record
			r.rollback = &rec
			return nil
		})
	env.OnActivity("DispatchNotification", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.DispatchParams) (int, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, p.Event)
			r.trail = append(r.trail, "notified:"+p.Event.Event)
			return 1, nil
		})
	env.OnActivity("ArchiveDeployment", mock.Anything, mock.Anything).Return("", nil)
}

func (r *recorder) mockSnapshot(env *testsuite.TestWorkflowEnvironment, id string, err error) {
	env.OnActivity("CreatePreDeploySnapshot", mock.Anything, mock.Anything).Return(id, err)
}

func (r *recorder) mockStrategy(env *testsuite.TestWorkflowEnvironment, err error) {
	env.OnActivity("ExecuteStrategy", mock.Anything, mock.Anything).Return(
		func(context.Context, activity.ExecuteStrategyParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.strategies++
			return err
		})
}

func (r *recorder) mockRevert(env *testsuite.TestWorkflowEnvironment, err error) {
	env.OnActivity("RevertDeployment", mock.Anything, mock.Anything).Return(
		func(_ context.Context, p activity.RevertParams) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.reverts = append(r.reverts, p)
			return err
		})
}

func (r *recorder) finalCheck(checkID, phase string) *model.CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.checks) - 1; i >= 0; i-- {
		if r.checks[i].CheckID == checkID && r.checks[i].Phase == phase {
			c := r.checks[i]
			return &c
		}
	}
	return nil
}

func (r *recorder) hasLog(level, substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if (level == "" || l.Level == level) && strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

func (r *recorder) eventNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

var allEvents = []string{
	model.EventStarted, model.EventApproved, model.EventRejected,
	model.EventCompleted, model.EventFailed, model.EventRolledBack,
}

func testSettings() activity.EngineSettings {
	return activity.EngineSettings{
		CheckPollInterval:     5 * time.Second,
		StabilizationDelay:    30 * time.Second,
		MaxDeploymentDuration: 6 * time.Hour,
		MinSuccessRate:        0.9,
	}
}

// newDeploymentContext builds a deployment for cfg the way the API creates it.
func newDeploymentContext(id string, cfg model.DeploymentConfig) *activity.DeploymentContext {
	if cfg.ID == "" {
		cfg.ID = "cfg-1"
	}
	if cfg.Name == "" {
		cfg.Name = "support-bot"
	}
	if cfg.Environment == "" {
		cfg.Environment = model.EnvironmentStaging
	}
	if cfg.Strategy == "" {
		cfg.Strategy = model.StrategyDirect
	}
	d := model.NewDeployment(id, &cfg, "v2", "alice", "v1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return &activity.DeploymentContext{Deployment: *d, Config: cfg, Settings: testSettings()}
}

func healthCheck(id string, required bool) model.CheckSpec {
	return model.CheckSpec{
		ID:             id,
		Name:           id,
		Type:           model.CheckTypeHealthCheck,
		Parameters:     map[string]string{"url": "http://app.internal/healthz"},
		TimeoutMinutes: 1,
		Required:       required,
	}
}
