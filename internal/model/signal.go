package model

// TaskQueue is the Temporal task queue served by the rollout worker.
const TaskQueue = "rollout-tasks"

// Signal names understood by the deployment workflow.
const (
	ApprovalSignalName         = "approval-decision"
	RollbackDecisionSignalName = "rollback-decision"
)

// ApprovalSignal carries an approver's recorded decision to the workflow.
type ApprovalSignal struct {
	ApproverID string `json:"approver_id"`
	Approved   bool   `json:"approved"`
	Comments   string `json:"comments,omitempty"`
}

// RollbackDecisionSignal answers a pending manual rollback request.
type RollbackDecisionSignal struct {
	DecidedBy string `json:"decided_by"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason,omitempty"`
}
