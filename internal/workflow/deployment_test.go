package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/clients"
	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/probe"
)

type DeploymentWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
	rec *recorder
}

func (s *DeploymentWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
	s.rec = newRecorder()
	s.rec.mockPipeline(s.env)
}

func (s *DeploymentWorkflowTestSuite) start(dc *activity.DeploymentContext) {
	s.env.OnActivity("GetDeploymentContext", mock.Anything, dc.Deployment.ID).Return(dc, nil)
	s.env.ExecuteWorkflow(DeploymentWorkflow, dc.Deployment.ID)
	s.True(s.env.IsWorkflowCompleted())
}

func (s *DeploymentWorkflowTestSuite) onProbe(checkID string, passed bool) {
	s.env.OnActivity("RunProbe", mock.Anything, mock.MatchedBy(func(p activity.RunProbeParams) bool {
		return p.CheckID == checkID
	})).Return(&probe.Result{Passed: passed, Output: "probe output"}, nil)
}

func (s *DeploymentWorkflowTestSuite) signalApproval(after time.Duration, approver string, approved bool) {
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(model.ApprovalSignalName, model.ApprovalSignal{ApproverID: approver, Approved: approved})
	}, after)
}

// singleApproverConfig has one approver, one required pre-deploy health check,
// the direct strategy and rollback disabled.
func singleApproverConfig() model.DeploymentConfig {
	return model.DeploymentConfig{
		Strategy:        model.StrategyDirect,
		Approvals:       []model.ApprovalPolicy{{RequiredApprovers: []string{"bob"}}},
		PreDeployChecks: []model.CheckSpec{healthCheck("pre-health", true)},
	}
}

func (s *DeploymentWorkflowTestSuite) TestApprovedDeploymentCompletes() {
	dc := newDeploymentContext("dep-1", singleApproverConfig())
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.onProbe("pre-health", true)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{
		model.StatusApproved, model.StatusDeploying, model.StatusTesting, model.StatusCompleted,
	}, s.rec.statuses)
	s.Equal(1, s.rec.strategies)
	s.Equal("snap-1", s.rec.snapshotID)
	s.True(s.rec.hasLog(model.LogInfo, "for stabilization"))

	check := s.rec.finalCheck("pre-health", model.PhasePreDeploy)
	s.Require().NotNil(check)
	s.Equal(model.CheckPassed, check.Status)
	s.NotNil(check.StartTime)
	s.NotNil(check.EndTime)
}

func (s *DeploymentWorkflowTestSuite) TestFailedHealthCheckSkipsStrategy() {
	dc := newDeploymentContext("dep-1", singleApproverConfig())
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.onProbe("pre-health", false)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusApproved, model.StatusDeploying, model.StatusFailed}, s.rec.statuses)
	s.Equal("Pre-deployment checks failed", s.rec.messages[model.StatusFailed])
	s.Equal(0, s.rec.strategies)
	s.False(s.rec.hasLog("", "stabilization"))
	s.True(s.rec.hasLog(model.LogError, "Required check pre-health failed"))

	check := s.rec.finalCheck("pre-health", model.PhasePreDeploy)
	s.Require().NotNil(check)
	s.Equal(model.CheckFailed, check.Status)
}

func (s *DeploymentWorkflowTestSuite) TestOptionalPreDeployFailureDoesNotBlock() {
	cfg := model.DeploymentConfig{
		PreDeployChecks: []model.CheckSpec{healthCheck("required", true), healthCheck("optional", false)},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.onProbe("required", true)
	s.onProbe("optional", false)
	s.rec.mockStrategy(s.env, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal(1, s.rec.strategies)
	s.Equal(model.StatusCompleted, s.rec.statuses[len(s.rec.statuses)-1])
	s.True(s.rec.hasLog(model.LogWarn, "Optional check optional failed"))
}

func (s *DeploymentWorkflowTestSuite) TestRequiredFailureStillRunsRemainingChecks() {
	cfg := model.DeploymentConfig{
		PreDeployChecks: []model.CheckSpec{healthCheck("first", true), healthCheck("second", false)},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.onProbe("first", false)
	s.onProbe("second", true)
	s.rec.mockStrategy(s.env, nil)

	s.start(dc)

	s.Equal(0, s.rec.strategies)
	second := s.rec.finalCheck("second", model.PhasePreDeploy)
	s.Require().NotNil(second)
	s.Equal(model.CheckPassed, second.Status)
}

func (s *DeploymentWorkflowTestSuite) TestZeroApprovalsSkipsPendingApproval() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{})
	s.Equal(model.StatusDeploying, dc.Deployment.Status)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusTesting, model.StatusCompleted}, s.rec.statuses)
	s.NotContains(s.rec.statuses, model.StatusPendingApproval)
}

func (s *DeploymentWorkflowTestSuite) TestSingleRejectionRejects() {
	cfg := model.DeploymentConfig{
		Approvals: []model.ApprovalPolicy{
			{RequiredApprovers: []string{"bob", "carol"}},
			{RequiredApprovers: []string{"dave"}},
		},
		Notifications: []model.NotificationRule{{Channel: model.ChannelWebhook, Target: "http://hooks", Events: allEvents}},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)
	s.signalApproval(2*time.Minute, "dave", false)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusRejected}, s.rec.statuses)
	s.Equal("Rejected by dave", s.rec.messages[model.StatusRejected])
	s.Equal(0, s.rec.strategies)
	s.Equal([]string{model.EventStarted, model.EventApproved, model.EventRejected}, s.rec.eventNames())
	s.Equal("dave", s.rec.events[2].ApproverID)
}

func (s *DeploymentWorkflowTestSuite) TestApprovedOnlyWhenAllSlotsApproved() {
	cfg := model.DeploymentConfig{
		Approvals: []model.ApprovalPolicy{{RequiredApprovers: []string{"bob", "carol"}}},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)
	s.env.RegisterDelayedCallback(func() {
		val, err := s.env.QueryWorkflow(StatusQuery)
		s.NoError(err)
		var status string
		s.NoError(val.Get(&status))
		s.Equal(model.StatusPendingApproval, status)
	}, 90*time.Second)
	s.signalApproval(2*time.Minute, "carol", true)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal(model.StatusApproved, s.rec.statuses[0])
	s.Equal(model.StatusCompleted, s.rec.statuses[len(s.rec.statuses)-1])
}

func (s *DeploymentWorkflowTestSuite) TestDuplicateDecisionIsIgnored() {
	cfg := model.DeploymentConfig{
		Approvals:     []model.ApprovalPolicy{{RequiredApprovers: []string{"bob", "carol"}}},
		Notifications: []model.NotificationRule{{Channel: model.ChannelSlack, Target: "#deploys", Events: []string{model.EventApproved, model.EventRejected}}},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)
	s.signalApproval(2*time.Minute, "bob", false)
	s.signalApproval(3*time.Minute, "carol", true)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.EventApproved, model.EventApproved}, s.rec.eventNames())
	s.Equal(model.StatusCompleted, s.rec.statuses[len(s.rec.statuses)-1])

	s.Require().Len(s.rec.approvals, 2)
	s.Equal("bob", s.rec.approvals[0].Decision.ApproverID)
	s.True(s.rec.approvals[0].Decision.Approved)
	s.Equal("carol", s.rec.approvals[1].Decision.ApproverID)
}

func (s *DeploymentWorkflowTestSuite) TestDecisionIsStoredBeforeItIsAnnounced() {
	cfg := singleApproverConfig()
	cfg.Notifications = []model.NotificationRule{{Channel: model.ChannelWebhook, Target: "http://hooks.internal", Events: []string{model.EventApproved}}}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.onProbe("pre-health", true)
	s.rec.mockStrategy(s.env, nil)
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(model.ApprovalSignalName, model.ApprovalSignal{ApproverID: "bob", Approved: true, Comments: "lgtm"})
	}, time.Minute)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Require().Len(s.rec.approvals, 1)
	stored := s.rec.approvals[0]
	s.Equal("dep-1", stored.DeploymentID)
	s.Equal("lgtm", stored.Decision.Comments)
	s.False(stored.DecidedAt.IsZero())
	s.Equal([]string{"stored:bob", "notified:" + model.EventApproved}, s.rec.trail)
	s.Equal(model.StatusApproved, s.rec.statuses[0])
}

func (s *DeploymentWorkflowTestSuite) TestDecisionStoreFailureFailsDeployment() {
	cfg := singleApproverConfig()
	cfg.Notifications = []model.NotificationRule{{Channel: model.ChannelWebhook, Target: "http://hooks.internal", Events: allEvents}}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.approvalErr = temporal.NewNonRetryableApplicationError("database unavailable", "StoreError", nil)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)

	s.start(dc)
	s.Error(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusFailed}, s.rec.statuses)
	s.NotContains(s.rec.eventNames(), model.EventApproved)
	s.Equal(0, s.rec.strategies)
}

func (s *DeploymentWorkflowTestSuite) TestApprovalTimeout() {
	cfg := model.DeploymentConfig{
		Approvals: []model.ApprovalPolicy{
			{RequiredApprovers: []string{"bob"}, TimeoutMinutes: 60},
			{RequiredApprovers: []string{"carol"}, TimeoutMinutes: 30},
		},
		Notifications: []model.NotificationRule{{Channel: model.ChannelKafka, Events: []string{model.EventRejected}}},
	}
	dc := newDeploymentContext("dep-1", cfg)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusRejected}, s.rec.statuses)
	s.Equal("approval timed out", s.rec.messages[model.StatusRejected])
	s.Equal([]string{model.EventRejected}, s.rec.eventNames())
}

func (s *DeploymentWorkflowTestSuite) TestTestSuiteTimesOut() {
	cfg := model.DeploymentConfig{
		PreDeployChecks: []model.CheckSpec{{
			ID: "suite", Name: "regression", Type: model.CheckTypeTestSuite,
			Parameters: map[string]string{"suiteId": "regression"}, TimeoutMinutes: 1, Required: true,
		}},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.env.OnActivity("StartTestSuite", mock.Anything, "regression").Return("run-1", nil)
	s.env.OnActivity("GetTestRunStatus", mock.Anything, "run-1").Return(&clients.RunStatus{Status: clients.RunRunning}, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	check := s.rec.finalCheck("suite", model.PhasePreDeploy)
	s.Require().NotNil(check)
	s.Equal(model.CheckFailed, check.Status)
	s.Require().NotEmpty(check.Errors)
	s.Contains(check.Errors[0], model.ErrTypeCheckTimeout)
	s.Equal(model.StatusFailed, s.rec.statuses[len(s.rec.statuses)-1])
	s.Equal(0, s.rec.strategies)
}

func (s *DeploymentWorkflowTestSuite) TestTestSuiteSuccessRate() {
	cfg := model.DeploymentConfig{
		PostDeployChecks: []model.CheckSpec{{
			ID: "suite", Name: "smoke", Type: model.CheckTypeTestSuite,
			Parameters: map[string]string{"suiteId": "smoke", "minSuccessRate": "0.95"}, TimeoutMinutes: 10, Required: true,
		}},
	}
	dc := newDeploymentContext("dep-1", cfg)
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.env.OnActivity("StartTestSuite", mock.Anything, "smoke").Return("run-2", nil)
	s.env.OnActivity("GetTestRunStatus", mock.Anything, "run-2").Return(
		&clients.RunStatus{Status: clients.RunCompleted, SuccessRate: 0.92, Passed: 92, Failed: 8}, nil)

	s.start(dc)

	check := s.rec.finalCheck("suite", model.PhasePostDeploy)
	s.Require().NotNil(check)
	s.Equal(model.CheckFailed, check.Status)
	s.Equal(model.StatusFailed, s.rec.statuses[len(s.rec.statuses)-1])
	s.Nil(s.rec.rollback)
}

func (s *DeploymentWorkflowTestSuite) TestStrategyFailureFailsDeployment() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		RollbackPolicy: model.RollbackPolicy{Enabled: true},
	})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, temporal.NewNonRetryableApplicationError("platform refused step", model.ErrTypeStrategyExecution, nil))

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusTesting, model.StatusFailed}, s.rec.statuses)
	s.Contains(s.rec.messages[model.StatusFailed], "Strategy execution failed")
	s.Contains(s.rec.messages[model.StatusFailed], "platform refused step")
	s.Nil(s.rec.rollback)
}

func (s *DeploymentWorkflowTestSuite) TestPostDeployFailureRollsBack() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		PostDeployChecks: []model.CheckSpec{healthCheck("post-health", true)},
		RollbackPolicy:   model.RollbackPolicy{Enabled: true},
	})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusTesting, model.StatusRollingBack, model.StatusRolledBack}, s.rec.statuses)
	s.Require().NotNil(s.rec.rollback)
	s.True(s.rec.rollback.Success)
	s.Equal(rollbackTriggeredAutomatic, s.rec.rollback.TriggeredBy)
	s.Equal("v1", s.rec.rollback.PreviousVersion)
	s.Equal("Post-deployment checks failed", s.rec.rollback.Reason)
	s.Require().Len(s.rec.reverts, 1)
	s.Equal("snap-1", s.rec.reverts[0].SnapshotID)
}

func (s *DeploymentWorkflowTestSuite) TestPostDeployFailureWithoutRollback() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		PostDeployChecks: []model.CheckSpec{healthCheck("post-health", true)},
	})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusTesting, model.StatusFailed}, s.rec.statuses)
	s.Nil(s.rec.rollback)
	s.Empty(s.rec.reverts)
}

func (s *DeploymentWorkflowTestSuite) TestFailedRevertStillEndsRolledBack() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		PostDeployChecks: []model.CheckSpec{healthCheck("post-health", true)},
		RollbackPolicy:   model.RollbackPolicy{Enabled: true},
	})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, errors.New("platform revert: connection refused"))

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal(model.StatusRolledBack, s.rec.statuses[len(s.rec.statuses)-1])
	s.Require().NotNil(s.rec.rollback)
	s.False(s.rec.rollback.Success)
	s.Contains(s.rec.rollback.Error, "connection refused")
	s.Len(s.rec.reverts, 1)
	s.True(s.rec.hasLog(model.LogError, model.ErrTypeRollbackFailure))
}

func (s *DeploymentWorkflowTestSuite) TestRollbackTriggerFires() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		RollbackPolicy: model.RollbackPolicy{
			Enabled:           true,
			AutomaticTriggers: []model.RollbackTrigger{{Type: "error_rate", Threshold: 0.05, TimeWindowMinutes: 5}},
		},
	})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.rec.mockRevert(s.env, nil)
	s.env.OnActivity("EvaluateRollbackTriggers", mock.Anything, mock.Anything).Return(
		&activity.TriggerEvaluation{Fired: true, Reason: "rollback trigger error_rate fired"}, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal(model.StatusRolledBack, s.rec.statuses[len(s.rec.statuses)-1])
	s.Require().NotNil(s.rec.rollback)
	s.Equal("rollback trigger error_rate fired", s.rec.rollback.Reason)
}

func (s *DeploymentWorkflowTestSuite) manualRollbackConfig() model.DeploymentConfig {
	return model.DeploymentConfig{
		PostDeployChecks: []model.CheckSpec{healthCheck("post-health", true)},
		RollbackPolicy:   model.RollbackPolicy{Enabled: true, ManualApprovalRequired: true, MaxRollbackMinutes: 20},
	}
}

func (s *DeploymentWorkflowTestSuite) TestManualRollbackApproved() {
	dc := newDeploymentContext("dep-1", s.manualRollbackConfig())
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, nil)
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(model.RollbackDecisionSignalName, model.RollbackDecisionSignal{DecidedBy: "oncall", Approved: true})
	}, 5*time.Minute)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.True(s.rec.hasLog(model.LogWarn, "Rollback requires manual approval"))
	s.Equal(model.StatusRolledBack, s.rec.statuses[len(s.rec.statuses)-1])
	s.Require().NotNil(s.rec.rollback)
	s.Equal("oncall", s.rec.rollback.TriggeredBy)
}

func (s *DeploymentWorkflowTestSuite) TestManualRollbackDeclined() {
	dc := newDeploymentContext("dep-1", s.manualRollbackConfig())
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, nil)
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(model.RollbackDecisionSignalName, model.RollbackDecisionSignal{DecidedBy: "oncall", Reason: "fixing forward"})
	}, 5*time.Minute)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal(model.StatusFailed, s.rec.statuses[len(s.rec.statuses)-1])
	s.Contains(s.rec.messages[model.StatusFailed], "Rollback declined by oncall")
	s.Nil(s.rec.rollback)
	s.Empty(s.rec.reverts)
}

func (s *DeploymentWorkflowTestSuite) TestManualRollbackDecisionTimesOut() {
	dc := newDeploymentContext("dep-1", s.manualRollbackConfig())
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal(model.StatusFailed, s.rec.statuses[len(s.rec.statuses)-1])
	s.Contains(s.rec.messages[model.StatusFailed], "timed out after 20m0s")
	s.Empty(s.rec.reverts)
}

func (s *DeploymentWorkflowTestSuite) TestSnapshotFailureIsNotFatal() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		PostDeployChecks: []model.CheckSpec{healthCheck("post-health", true)},
		RollbackPolicy:   model.RollbackPolicy{Enabled: true},
	})
	s.rec.mockSnapshot(s.env, "", temporal.NewNonRetryableApplicationError("backup service unavailable", "CLIENT_ERROR", nil))
	s.rec.mockStrategy(s.env, nil)
	s.onProbe("post-health", false)
	s.rec.mockRevert(s.env, nil)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.True(s.rec.hasLog(model.LogWarn, "Pre-deploy snapshot failed"))
	s.Empty(s.rec.snapshotID)
	s.Equal(1, s.rec.strategies)
	s.Require().Len(s.rec.reverts, 1)
	s.Empty(s.rec.reverts[0].SnapshotID)
	s.Equal(model.StatusRolledBack, s.rec.statuses[len(s.rec.statuses)-1])
}

func (s *DeploymentWorkflowTestSuite) TestLifecycleNotifications() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		Approvals:     []model.ApprovalPolicy{{RequiredApprovers: []string{"bob"}}},
		Notifications: []model.NotificationRule{{Channel: model.ChannelSlack, Target: "#deploys", Events: allEvents}},
	})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.signalApproval(time.Minute, "bob", true)

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.EventStarted, model.EventApproved, model.EventCompleted}, s.rec.eventNames())
	s.Equal("bob", s.rec.events[1].ApproverID)
	s.Equal(model.StatusCompleted, s.rec.events[2].Status)
	s.Equal("support-bot", s.rec.events[2].ConfigName)
}

func (s *DeploymentWorkflowTestSuite) TestWatchdogFailsStuckDeployment() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{
		Approvals:            []model.ApprovalPolicy{{RequiredApprovers: []string{"bob"}}},
		MaxDeploymentMinutes: 10,
	})

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Equal([]string{model.StatusFailed}, s.rec.statuses)
	s.Contains(s.rec.messages[model.StatusFailed], "exceeded maximum duration of 10m0s")
}

func (s *DeploymentWorkflowTestSuite) TestAlreadyFinishedDeploymentIsNoop() {
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{})
	dc.Deployment.Status = model.StatusCompleted

	s.start(dc)
	s.NoError(s.env.GetWorkflowError())

	s.Empty(s.rec.statuses)
}

func (s *DeploymentWorkflowTestSuite) TestAdvisoryRetryCountIsLogged() {
	check := healthCheck("pre-health", true)
	check.RetryCount = 3
	dc := newDeploymentContext("dep-1", model.DeploymentConfig{PreDeployChecks: []model.CheckSpec{check}})
	s.rec.mockSnapshot(s.env, "snap-1", nil)
	s.rec.mockStrategy(s.env, nil)
	s.env.OnActivity("RunProbe", mock.Anything, mock.Anything).Return(&probe.Result{Passed: false}, nil).Once()

	s.start(dc)

	s.True(s.rec.hasLog(model.LogDebug, "retry_count 3"))
	s.Equal(model.StatusFailed, s.rec.statuses[len(s.rec.statuses)-1])
}

func TestDeploymentWorkflowSuite(t *testing.T) {
	suite.Run(t, new(DeploymentWorkflowTestSuite))
}
