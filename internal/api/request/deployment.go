package request

// StartDeployment is the body of POST /deployments.
type StartDeployment struct {
	ConfigID   string `json:"config_id" validate:"required"`
	Version    string `json:"version" validate:"required,version"`
	DeployedBy string `json:"deployed_by" validate:"required"`
}

// ApprovalDecision is the body of POST /deployments/{id}/approvals.
type ApprovalDecision struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Approved   *bool  `json:"approved" validate:"required"`
	Comments   string `json:"comments" validate:"max=2000"`
}

// RollbackDecision is the body of POST /deployments/{id}/rollback-decision.
type RollbackDecision struct {
	DecidedBy string `json:"decided_by" validate:"required"`
	Approved  *bool  `json:"approved" validate:"required"`
	Reason    string `json:"reason" validate:"max=2000"`
}
