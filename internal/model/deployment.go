package model

import "time"

// Deployment is one run of promoting Version under a DeploymentConfig. It is
// never deleted and serves as the audit trail for the run.
type Deployment struct {
	ID              string             `json:"id"`
	ConfigID        string             `json:"config_id"`
	ConfigName      string             `json:"config_name"`
	ConfigVersion   int                `json:"config_version"`
	Version         string             `json:"version"`
	PreviousVersion string             `json:"previous_version,omitempty"`
	Environment     string             `json:"environment"`
	Strategy        string             `json:"strategy"`
	Status          string             `json:"status"`
	StatusMessage   *string            `json:"status_message,omitempty"`
	DeployedBy      string             `json:"deployed_by"`
	Approvals       []ApprovalDecision `json:"approvals"`
	Checks          []CheckResult      `json:"checks"`
	Artifacts       []Artifact         `json:"artifacts"`
	Rollback        *RollbackRecord    `json:"rollback,omitempty"`
	SnapshotID      *string            `json:"snapshot_id,omitempty"`
	WorkflowID      string             `json:"workflow_id"`
	Revision        int64              `json:"revision"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         *time.Time         `json:"end_time,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ApprovalDecision is one approver's slot on a deployment.
type ApprovalDecision struct {
	ApproverID  string     `json:"approver_id"`
	PolicyIndex int        `json:"policy_index"`
	Status      string     `json:"status"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	Comments    string     `json:"comments,omitempty"`
}

// CheckResult is the recorded outcome of one declared check.
type CheckResult struct {
	CheckID   string     `json:"check_id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Phase     string     `json:"phase"`
	Required  bool       `json:"required"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Output    string     `json:"output,omitempty"`
	Errors    []string   `json:"errors,omitempty"`
}

// RollbackRecord describes the single rollback a deployment may have.
type RollbackRecord struct {
	TriggeredBy        string    `json:"triggered_by"`
	Reason             string    `json:"reason"`
	Timestamp          time.Time `json:"timestamp"`
	PreviousVersion    string    `json:"previous_version"`
	RollbackDurationMS int64     `json:"rollback_duration_ms"`
	Success            bool      `json:"success"`
	Error              string    `json:"error,omitempty"`
}

// Artifact types.
const (
	ArtifactSnapshot = "snapshot"
	ArtifactArchive  = "archive"
)

// Artifact is an external object produced by a deployment run.
type Artifact struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry is one line of a deployment's append-only log.
type LogEntry struct {
	DeploymentID string    `json:"deployment_id"`
	Seq          int64     `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	Level        string    `json:"level"`
	Phase        string    `json:"phase,omitempty"`
	Message      string    `json:"message"`
}

// NewDeployment builds a deployment record for cfg with one approval slot
// per required approver and one check slot per declared check. The initial
// status is pending_approval when the config has approval policies and
// deploying otherwise.
func NewDeployment(id string, cfg *DeploymentConfig, version, deployedBy, previousVersion string, now time.Time) *Deployment {
	d := &Deployment{
		ID:              id,
		ConfigID:        cfg.ID,
		ConfigName:      cfg.Name,
		ConfigVersion:   cfg.Version,
		Version:         version,
		PreviousVersion: previousVersion,
		Environment:     cfg.Environment,
		Strategy:        cfg.Strategy,
		Status:          StatusDeploying,
		DeployedBy:      deployedBy,
		Approvals:       make([]ApprovalDecision, 0, cfg.RequiredApproverCount()),
		Checks:          make([]CheckResult, 0, len(cfg.PreDeployChecks)+len(cfg.PostDeployChecks)),
		Artifacts:       []Artifact{},
		WorkflowID:      DeploymentWorkflowID(id),
		StartTime:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(cfg.Approvals) > 0 {
		d.Status = StatusPendingApproval
	}

	for i, p := range cfg.Approvals {
		for _, approver := range p.RequiredApprovers {
			d.Approvals = append(d.Approvals, ApprovalDecision{
				ApproverID:  approver,
				PolicyIndex: i,
				Status:      DecisionPending,
			})
		}
	}
	for _, c := range cfg.PreDeployChecks {
		d.Checks = append(d.Checks, newCheckResult(c, PhasePreDeploy))
	}
	for _, c := range cfg.PostDeployChecks {
		d.Checks = append(d.Checks, newCheckResult(c, PhasePostDeploy))
	}
	return d
}

func newCheckResult(c CheckSpec, phase string) CheckResult {
	return CheckResult{
		CheckID:  c.ID,
		Name:     c.Name,
		Type:     c.Type,
		Phase:    phase,
		Required: c.Required,
		Status:   CheckPending,
	}
}

// DeploymentWorkflowID is the Temporal workflow id for a deployment.
func DeploymentWorkflowID(deploymentID string) string {
	return "deployment-" + deploymentID
}
