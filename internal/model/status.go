package model

// Deployment status constants.
const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusDeploying       = "deploying"
	StatusTesting         = "testing"
	StatusCompleted       = "completed"
	StatusFailed          = "failed"
	StatusRollingBack     = "rolling_back"
	StatusRolledBack      = "rolled_back"
)

// transitions lists every allowed status edge. Statuses without an entry are terminal.
var transitions = map[string][]string{
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusFailed},
	StatusApproved:        {StatusDeploying, StatusFailed},
	StatusDeploying:       {StatusTesting, StatusFailed},
	StatusTesting:         {StatusCompleted, StatusRollingBack, StatusFailed},
	StatusRollingBack:     {StatusRolledBack},
}

// CanTransition reports whether a deployment may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from status.
func IsTerminal(status string) bool {
	switch status {
	case StatusRejected, StatusCompleted, StatusFailed, StatusRolledBack:
		return true
	}
	return false
}

// Approval slot statuses.
const (
	DecisionPending  = "pending"
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// Check result statuses.
const (
	CheckPending = "pending"
	CheckRunning = "running"
	CheckPassed  = "passed"
	CheckFailed  = "failed"
	CheckSkipped = "skipped"
)

// Check phases.
const (
	PhasePreDeploy  = "pre-deploy"
	PhasePostDeploy = "post-deploy"
)

// Log levels.
const (
	LogDebug = "debug"
	LogInfo  = "info"
	LogWarn  = "warn"
	LogError = "error"
)
