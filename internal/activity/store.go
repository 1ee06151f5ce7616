package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/rollout/internal/metrics"
	"github.com/edvin/rollout/internal/model"
)

// DeploymentStore is the persistence the deployment activities need.
// *store.DeploymentStore satisfies it.
type DeploymentStore interface {
	Get(ctx context.Context, id string) (*model.Deployment, error)
	Update(ctx context.Context, id string, mutate func(d *model.Deployment) error) (*model.Deployment, error)
	UpdateWithLog(ctx context.Context, id string, mutate func(d *model.Deployment) (*model.LogEntry, error)) (*model.Deployment, error)
	AppendLog(ctx context.Context, e *model.LogEntry) error
	ListLogs(ctx context.Context, deploymentID string, afterSeq int64, limit int) ([]model.LogEntry, bool, error)
	CleanupAuditLogs(ctx context.Context, retentionDays int) (int64, error)
}

// ConfigStore reads deployment configs. *store.ConfigStore satisfies it.
type ConfigStore interface {
	Get(ctx context.Context, id string) (*model.DeploymentConfig, error)
}

// EngineSettings are the worker-wide defaults a deployment run falls back on.
type EngineSettings struct {
	CheckPollInterval     time.Duration `json:"check_poll_interval"`
	StabilizationDelay    time.Duration `json:"stabilization_delay"`
	MaxDeploymentDuration time.Duration `json:"max_deployment_duration"`
	MinSuccessRate        float64       `json:"min_success_rate"`
}

// DeploymentContext is everything a deployment run needs to start.
type DeploymentContext struct {
	Deployment model.Deployment       `json:"deployment"`
	Config     model.DeploymentConfig `json:"config"`
	Settings   EngineSettings         `json:"settings"`
}

// Store contains activities that read and update deployment records.
type Store struct {
	deployments DeploymentStore
	configs     ConfigStore
	settings    EngineSettings
	logger      zerolog.Logger
}

func NewStore(deployments DeploymentStore, configs ConfigStore, settings EngineSettings, logger zerolog.Logger) *Store {
	return &Store{
		deployments: deployments,
		configs:     configs,
		settings:    settings,
		logger:      logger.With().Str("component", "store-activity").Logger(),
	}
}

// GetDeploymentContext loads a deployment with the config version it was
// started from.
func (a *Store) GetDeploymentContext(ctx context.Context, deploymentID string) (*DeploymentContext, error) {
	d, err := a.deployments.Get(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	cfg, err := a.configs.Get(ctx, d.ConfigID)
	if err != nil {
		return nil, err
	}
	return &DeploymentContext{Deployment: *d, Config: *cfg, Settings: a.settings}, nil
}

// TransitionParams holds the parameters for TransitionDeployment.
type TransitionParams struct {
	DeploymentID string `json:"deployment_id"`
	To           string `json:"to"`
	Message      string `json:"message,omitempty"`
}

// TransitionDeployment moves a deployment to a new status and logs the
// change in the same write. Repeating a transition that already happened is
// a no-op.
func (a *Store) TransitionDeployment(ctx context.Context, params TransitionParams) error {
	var entry *model.LogEntry
	_, err := a.deployments.UpdateWithLog(ctx, params.DeploymentID, func(d *model.Deployment) (*model.LogEntry, error) {
		entry = nil
		if d.Status == params.To {
			return nil, nil
		}
		if !model.CanTransition(d.Status, params.To) {
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, d.Status, params.To)
		}
		from := d.Status
		d.Status = params.To
		if params.Message != "" {
			msg := params.Message
			d.StatusMessage = &msg
		} else {
			d.StatusMessage = nil
		}
		if model.IsTerminal(params.To) {
			now := time.Now()
			d.EndTime = &now
		}

		level := model.LogInfo
		if params.To == model.StatusFailed || params.To == model.StatusRejected {
			level = model.LogError
		}
		msg := fmt.Sprintf("Status changed from %s to %s", from, params.To)
		if params.Message != "" {
			msg += ": " + params.Message
		}
		entry = &model.LogEntry{Level: level, Message: msg, Timestamp: time.Now()}
		return entry, nil
	})
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	metrics.TransitionsTotal.WithLabelValues(params.To).Inc()
	a.logger.Debug().Str("deployment_id", params.DeploymentID).Int64("seq", entry.Seq).Str("level", entry.Level).Msg(entry.Message)
	return nil
}

// RecordApprovalParams holds the parameters for RecordApprovalDecision.
type RecordApprovalParams struct {
	DeploymentID string               `json:"deployment_id"`
	Decision     model.ApprovalSignal `json:"decision"`
	DecidedAt    time.Time            `json:"decided_at"`
}

// RecordApprovalDecision stores an approver's decision on each of their
// pending slots together with its log line. It reports whether any slot
// changed; replaying a stored decision changes nothing.
func (a *Store) RecordApprovalDecision(ctx context.Context, params RecordApprovalParams) (bool, error) {
	sig := params.Decision
	status := model.DecisionRejected
	level := model.LogWarn
	if sig.Approved {
		status = model.DecisionApproved
		level = model.LogInfo
	}

	changed := false
	_, err := a.deployments.UpdateWithLog(ctx, params.DeploymentID, func(d *model.Deployment) (*model.LogEntry, error) {
		changed = false
		if d.Status != model.StatusPendingApproval {
			return nil, fmt.Errorf("%w: deployment %s is %s, not %s", model.ErrInvalidTransition, d.ID, d.Status, model.StatusPendingApproval)
		}
		for i := range d.Approvals {
			slot := &d.Approvals[i]
			if slot.ApproverID != sig.ApproverID || slot.Status != model.DecisionPending {
				continue
			}
			decided := params.DecidedAt
			slot.Status = status
			slot.DecidedAt = &decided
			slot.Comments = sig.Comments
			changed = true
		}
		if !changed {
			return nil, nil
		}

		msg := fmt.Sprintf("Approval decision from %s: %s", sig.ApproverID, status)
		if sig.Comments != "" {
			msg += " (" + sig.Comments + ")"
		}
		return &model.LogEntry{Level: level, Message: msg, Timestamp: time.Now()}, nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// AppendLogParams holds the parameters for AppendDeploymentLog.
type AppendLogParams struct {
	DeploymentID string `json:"deployment_id"`
	Level        string `json:"level"`
	Phase        string `json:"phase,omitempty"`
	Message      string `json:"message"`
}

func (a *Store) AppendDeploymentLog(ctx context.Context, params AppendLogParams) error {
	return a.appendLog(ctx, &model.LogEntry{
		DeploymentID: params.DeploymentID,
		Level:        params.Level,
		Phase:        params.Phase,
		Message:      params.Message,
	})
}

func (a *Store) appendLog(ctx context.Context, e *model.LogEntry) error {
	e.Timestamp = time.Now()
	if err := a.deployments.AppendLog(ctx, e); err != nil {
		return err
	}
	a.logger.Debug().Str("deployment_id", e.DeploymentID).Int64("seq", e.Seq).Str("level", e.Level).Msg(e.Message)
	return nil
}

// UpdateCheckResultParams holds the parameters for UpdateCheckResult.
type UpdateCheckResultParams struct {
	DeploymentID string            `json:"deployment_id"`
	Result       model.CheckResult `json:"result"`
}

// UpdateCheckResult overwrites the check slot matching the result's check id
// and phase.
func (a *Store) UpdateCheckResult(ctx context.Context, params UpdateCheckResultParams) error {
	r := params.Result
	_, err := a.deployments.Update(ctx, params.DeploymentID, func(d *model.Deployment) error {
		for i := range d.Checks {
			if d.Checks[i].CheckID == r.CheckID && d.Checks[i].Phase == r.Phase {
				d.Checks[i] = r
				return nil
			}
		}
		return fmt.Errorf("deployment %s has no %s check %q", params.DeploymentID, r.Phase, r.CheckID)
	})
	if err != nil {
		return err
	}

	if r.Status == model.CheckPassed || r.Status == model.CheckFailed {
		metrics.ChecksTotal.WithLabelValues(r.Type, r.Phase, r.Status).Inc()
		if r.StartTime != nil && r.EndTime != nil {
			metrics.CheckDuration.WithLabelValues(r.Type).Observe(r.EndTime.Sub(*r.StartTime).Seconds())
		}
	}
	return nil
}

// SetSnapshotParams holds the parameters for SetSnapshot.
type SetSnapshotParams struct {
	DeploymentID string `json:"deployment_id"`
	SnapshotID   string `json:"snapshot_id"`
}

// SetSnapshot records the pre-deploy snapshot id and adds it as an artifact.
func (a *Store) SetSnapshot(ctx context.Context, params SetSnapshotParams) error {
	_, err := a.deployments.Update(ctx, params.DeploymentID, func(d *model.Deployment) error {
		id := params.SnapshotID
		d.SnapshotID = &id
		uri := "snapshot://" + id
		if !hasArtifact(d, model.ArtifactSnapshot, uri) {
			d.Artifacts = append(d.Artifacts, model.Artifact{
				Name:      "pre-deploy-snapshot",
				Type:      model.ArtifactSnapshot,
				URI:       uri,
				CreatedAt: time.Now(),
			})
		}
		return nil
	})
	return err
}

// RecordRollbackParams holds the parameters for RecordRollback.
type RecordRollbackParams struct {
	DeploymentID string               `json:"deployment_id"`
	Record       model.RollbackRecord `json:"record"`
}

// RecordRollback stores the deployment's rollback record. A deployment has at
// most one; a second, different record is rejected.
func (a *Store) RecordRollback(ctx context.Context, params RecordRollbackParams) error {
	duplicate := false
	_, err := a.deployments.Update(ctx, params.DeploymentID, func(d *model.Deployment) error {
		if d.Rollback != nil {
			if d.Rollback.Timestamp.Equal(params.Record.Timestamp) {
				duplicate = true
				return nil
			}
			return fmt.Errorf("deployment %s: %w", params.DeploymentID, model.ErrRollbackExists)
		}
		rec := params.Record
		d.Rollback = &rec
		return nil
	})
	if err != nil {
		return err
	}
	if !duplicate {
		metrics.RollbacksTotal.WithLabelValues(fmt.Sprint(params.Record.Success)).Inc()
	}
	return nil
}

// CleanupAuditLogs removes audit rows older than retentionDays.
func (a *Store) CleanupAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	n, err := a.deployments.CleanupAuditLogs(ctx, retentionDays)
	if err != nil {
		return 0, err
	}
	a.logger.Info().Int64("deleted", n).Int("retention_days", retentionDays).Msg("cleaned up audit logs")
	return n, nil
}

func hasArtifact(d *model.Deployment, typ, uri string) bool {
	for _, art := range d.Artifacts {
		if art.Type == typ && art.URI == uri {
			return true
		}
	}
	return false
}
