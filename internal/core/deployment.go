package core

import (
	"context"
	"fmt"
	"time"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
)

type DeploymentService struct {
	deployments DeploymentStore
	configs     ConfigStore
	tc          temporalclient.Client
}

func NewDeploymentService(deployments DeploymentStore, configs ConfigStore, tc temporalclient.Client) *DeploymentService {
	return &DeploymentService{deployments: deployments, configs: configs, tc: tc}
}

// StartParams identifies what to deploy.
type StartParams struct {
	ConfigID   string
	Version    string
	DeployedBy string
}

// Start creates a deployment of the given config version and starts its
// workflow. Configs without approval policies begin in deploying, all others
// in pending_approval.
func (s *DeploymentService) Start(ctx context.Context, params StartParams) (*model.Deployment, error) {
	cfg, err := s.configs.Get(ctx, params.ConfigID)
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", params.ConfigID, err)
	}

	prev, err := s.deployments.PreviousVersion(ctx, cfg.Name, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("previous version of %s in %s: %w", cfg.Name, cfg.Environment, err)
	}

	d := model.NewDeployment(newID(), cfg, params.Version, params.DeployedBy, prev, time.Now())
	if err := s.deployments.Insert(ctx, d); err != nil {
		return nil, fmt.Errorf("insert deployment: %w", err)
	}

	msg := fmt.Sprintf("Deployment of %s %s to %s created by %s (status %s)", cfg.Name, params.Version, cfg.Environment, params.DeployedBy, d.Status)
	if err := s.appendLog(ctx, d.ID, model.LogInfo, msg); err != nil {
		return nil, err
	}

	if err := s.startWorkflow(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Resume starts the workflow of an existing deployment again. Starting a
// workflow that is already running returns the running one, and a finished
// deployment's workflow exits immediately, so this is always safe.
func (s *DeploymentService) Resume(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.startWorkflow(ctx, d)
}

func (s *DeploymentService) startWorkflow(ctx context.Context, d *model.Deployment) error {
	_, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        d.WorkflowID,
		TaskQueue: model.TaskQueue,
	}, "DeploymentWorkflow", d.ID)
	if err != nil {
		return fmt.Errorf("start DeploymentWorkflow for %s: %w", d.ID, err)
	}
	return nil
}

func (s *DeploymentService) Get(ctx context.Context, id string) (*model.Deployment, error) {
	d, err := s.deployments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deployment %s: %w", id, err)
	}
	return d, nil
}

func (s *DeploymentService) List(ctx context.Context, f store.DeploymentFilter, limit int, cursor string) ([]model.Deployment, bool, error) {
	return s.deployments.List(ctx, f, limit, cursor)
}

// Logs returns a page of log entries with sequence numbers above afterSeq.
func (s *DeploymentService) Logs(ctx context.Context, id string, afterSeq int64, limit int) ([]model.LogEntry, bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, false, err
	}
	return s.deployments.ListLogs(ctx, id, afterSeq, limit)
}

// DecisionParams is one approver's decision.
type DecisionParams struct {
	ApproverID string
	Approved   bool
	Comments   string
}

// RecordDecision validates an approver's decision against the stored
// record and hands it to the deployment workflow, which stores it and
// resolves the gate. A deployment that is not waiting for approval, or an
// approver who has already decided, yields ErrInvalidTransition. Nothing is
// written here, so a decision whose signal fails can be resubmitted. The
// returned deployment shows the decision applied.
func (s *DeploymentService) RecordDecision(ctx context.Context, id string, params DecisionParams) (*model.Deployment, error) {
	d, err := s.deployments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("record decision on %s: %w", id, err)
	}
	if err := checkDecision(d, params.ApproverID); err != nil {
		return nil, fmt.Errorf("record decision on %s: %w", id, err)
	}

	err = s.tc.SignalWorkflow(ctx, d.WorkflowID, "", model.ApprovalSignalName, model.ApprovalSignal{
		ApproverID: params.ApproverID,
		Approved:   params.Approved,
		Comments:   params.Comments,
	})
	if err != nil {
		return nil, fmt.Errorf("signal approval decision to %s: %w", d.WorkflowID, err)
	}

	status := model.DecisionRejected
	if params.Approved {
		status = model.DecisionApproved
	}
	now := time.Now()
	for i := range d.Approvals {
		slot := &d.Approvals[i]
		if slot.ApproverID == params.ApproverID && slot.Status == model.DecisionPending {
			slot.Status = status
			slot.DecidedAt = &now
			slot.Comments = params.Comments
		}
	}
	return d, nil
}

// checkDecision reports whether approverID may decide on d now.
func checkDecision(d *model.Deployment, approverID string) error {
	if d.Status != model.StatusPendingApproval {
		return fmt.Errorf("%w: deployment %s is %s, not %s", model.ErrInvalidTransition, d.ID, d.Status, model.StatusPendingApproval)
	}
	held := false
	for _, slot := range d.Approvals {
		if slot.ApproverID != approverID {
			continue
		}
		held = true
		if slot.Status == model.DecisionPending {
			return nil
		}
	}
	if !held {
		return fmt.Errorf("%w: %s", model.ErrApproverNotRequired, approverID)
	}
	return fmt.Errorf("%w: %s has already decided", model.ErrInvalidTransition, approverID)
}

// DecideRollback answers a deployment that is waiting for a manual rollback
// decision.
func (s *DeploymentService) DecideRollback(ctx context.Context, id string, decision model.RollbackDecisionSignal) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.Status != model.StatusTesting {
		return fmt.Errorf("%w: deployment %s is %s", model.ErrInvalidTransition, id, d.Status)
	}
	cfg, err := s.configs.Get(ctx, d.ConfigID)
	if err != nil {
		return fmt.Errorf("get config %s: %w", d.ConfigID, err)
	}
	if !cfg.RollbackPolicy.Enabled || !cfg.RollbackPolicy.ManualApprovalRequired {
		return fmt.Errorf("%w: deployment %s does not take rollback decisions", model.ErrInvalidTransition, id)
	}

	verdict := "declined"
	if decision.Approved {
		verdict = "approved"
	}
	msg := fmt.Sprintf("Rollback %s by %s", verdict, decision.DecidedBy)
	if decision.Reason != "" {
		msg += " (" + decision.Reason + ")"
	}
	if err := s.appendLog(ctx, id, model.LogInfo, msg); err != nil {
		return err
	}

	if err := s.tc.SignalWorkflow(ctx, d.WorkflowID, "", model.RollbackDecisionSignalName, decision); err != nil {
		return fmt.Errorf("signal rollback decision to %s: %w", d.WorkflowID, err)
	}
	return nil
}

func (s *DeploymentService) appendLog(ctx context.Context, id, level, message string) error {
	err := s.deployments.AppendLog(ctx, &model.LogEntry{
		DeploymentID: id,
		Timestamp:    time.Now(),
		Level:        level,
		Message:      message,
	})
	if err != nil {
		return fmt.Errorf("append log to %s: %w", id, err)
	}
	return nil
}
