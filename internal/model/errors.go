package model

import "errors"

// Error type names. Activities report domain errors to workflows as
// temporal.ApplicationError values carrying one of these types.
const (
	ErrTypeConfigNotFound      = "ConfigNotFound"
	ErrTypeDeploymentNotFound  = "DeploymentNotFound"
	ErrTypeInvalidTransition   = "InvalidTransition"
	ErrTypeCheckTimeout        = "CheckTimeout"
	ErrTypeCheckFailed         = "CheckFailed"
	ErrTypeStrategyExecution   = "StrategyExecutionError"
	ErrTypeRollbackFailure     = "RollbackFailure"
	ErrTypeRollbackExists      = "RollbackExists"
	ErrTypeApproverNotRequired = "ApproverNotRequired"
)

var (
	ErrConfigNotFound      = errors.New("deployment config not found")
	ErrDeploymentNotFound  = errors.New("deployment not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrCheckTimeout        = errors.New("check timed out")
	ErrCheckFailed         = errors.New("check failed")
	ErrStrategyExecution   = errors.New("strategy execution failed")
	ErrRollbackFailure     = errors.New("rollback failed")
	ErrRollbackExists      = errors.New("rollback already recorded")
	ErrApproverNotRequired = errors.New("approver is not required for this deployment")
	ErrRevisionConflict    = errors.New("deployment was modified concurrently")

	// ErrValidation marks a request that is well-formed but not acceptable.
	ErrValidation = errors.New("validation failed")
)

// ErrorType returns the application error type name for a domain error, or
// "" when err is not one of the sentinels above.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrConfigNotFound):
		return ErrTypeConfigNotFound
	case errors.Is(err, ErrDeploymentNotFound):
		return ErrTypeDeploymentNotFound
	case errors.Is(err, ErrInvalidTransition):
		return ErrTypeInvalidTransition
	case errors.Is(err, ErrCheckTimeout):
		return ErrTypeCheckTimeout
	case errors.Is(err, ErrCheckFailed):
		return ErrTypeCheckFailed
	case errors.Is(err, ErrStrategyExecution):
		return ErrTypeStrategyExecution
	case errors.Is(err, ErrRollbackFailure):
		return ErrTypeRollbackFailure
	case errors.Is(err, ErrRollbackExists):
		return ErrTypeRollbackExists
	case errors.Is(err, ErrApproverNotRequired):
		return ErrTypeApproverNotRequired
	}
	return ""
}
