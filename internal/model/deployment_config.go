package model

import "time"

// Environments.
const (
	EnvironmentDev        = "dev"
	EnvironmentStaging    = "staging"
	EnvironmentProduction = "production"
)

// Rollout strategies.
const (
	StrategyDirect    = "direct"
	StrategyBlueGreen = "blue_green"
	StrategyCanary    = "canary"
	StrategyRolling   = "rolling"
)

// Check types.
const (
	CheckTypeTestSuite       = "test_suite"
	CheckTypePerformanceTest = "performance_test"
	CheckTypeSecurityScan    = "security_scan"
	CheckTypeHealthCheck     = "health_check"
	CheckTypeCustomScript    = "custom_script"
)

// Notification channels.
const (
	ChannelWebhook = "webhook"
	ChannelSlack   = "slack"
	ChannelKafka   = "kafka"
)

// DeploymentConfig is an immutable, versioned deployment template. A change
// to a config is stored as a new version; running deployments keep the
// version they were started with.
type DeploymentConfig struct {
	ID                   string             `json:"id" yaml:"-"`
	Name                 string             `json:"name" yaml:"name"`
	Version              int                `json:"version" yaml:"-"`
	Environment          string             `json:"environment" yaml:"environment"`
	Strategy             string             `json:"strategy" yaml:"strategy"`
	StrategyOptions      map[string]string  `json:"strategy_options,omitempty" yaml:"strategy_options,omitempty"`
	Approvals            []ApprovalPolicy   `json:"approvals" yaml:"approvals"`
	PreDeployChecks      []CheckSpec        `json:"pre_deploy_checks" yaml:"pre_deploy_checks"`
	PostDeployChecks     []CheckSpec        `json:"post_deploy_checks" yaml:"post_deploy_checks"`
	RollbackPolicy       RollbackPolicy     `json:"rollback_policy" yaml:"rollback_policy"`
	Notifications        []NotificationRule `json:"notifications" yaml:"notifications"`
	BackupTargets        []string           `json:"backup_targets,omitempty" yaml:"backup_targets,omitempty"`
	MaxDeploymentMinutes int                `json:"max_deployment_minutes,omitempty" yaml:"max_deployment_minutes,omitempty"`
	StabilizationSeconds int                `json:"stabilization_seconds,omitempty" yaml:"stabilization_seconds,omitempty"`
	CreatedBy            string             `json:"created_by" yaml:"-"`
	CreatedAt            time.Time          `json:"created_at" yaml:"-"`
}

// RequiredApproverCount is the number of approval slots a deployment of this
// config receives.
func (c *DeploymentConfig) RequiredApproverCount() int {
	n := 0
	for _, p := range c.Approvals {
		n += len(p.RequiredApprovers)
	}
	return n
}

// ApprovalPolicy names approvers that must sign off before rollout.
type ApprovalPolicy struct {
	RequiredApprovers []string          `json:"required_approvers" yaml:"required_approvers"`
	Conditions        map[string]string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	TimeoutMinutes    int               `json:"timeout_minutes,omitempty" yaml:"timeout_minutes,omitempty"`
}

// CheckSpec declares a single validation step.
type CheckSpec struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Type           string            `json:"type" yaml:"type"`
	Parameters     map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	TimeoutMinutes int               `json:"timeout_minutes" yaml:"timeout_minutes"`
	Required       bool              `json:"required" yaml:"required"`
	// RetryCount is recorded but not acted on; every check runs once.
	RetryCount int `json:"retry_count,omitempty" yaml:"retry_count,omitempty"`
}

// Timeout returns the check timeout, defaulting to five minutes.
func (c CheckSpec) Timeout() time.Duration {
	if c.TimeoutMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// RollbackPolicy controls what happens when post-deploy validation fails.
type RollbackPolicy struct {
	Enabled                bool              `json:"enabled" yaml:"enabled"`
	AutomaticTriggers      []RollbackTrigger `json:"automatic_triggers,omitempty" yaml:"automatic_triggers,omitempty"`
	ManualApprovalRequired bool              `json:"manual_approval_required" yaml:"manual_approval_required"`
	MaxRollbackMinutes     int               `json:"max_rollback_minutes,omitempty" yaml:"max_rollback_minutes,omitempty"`
}

// MaxRollbackTime bounds both the revert and the wait for a manual rollback decision.
func (p RollbackPolicy) MaxRollbackTime() time.Duration {
	if p.MaxRollbackMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(p.MaxRollbackMinutes) * time.Minute
}

// RollbackTrigger fires when the named platform metric exceeds Threshold
// over the trailing TimeWindowMinutes.
type RollbackTrigger struct {
	Type              string  `json:"type" yaml:"type"`
	Threshold         float64 `json:"threshold" yaml:"threshold"`
	TimeWindowMinutes int     `json:"time_window_minutes" yaml:"time_window_minutes"`
}

// NotificationRule routes lifecycle events to a channel.
type NotificationRule struct {
	Channel string   `json:"channel" yaml:"channel"`
	Target  string   `json:"target" yaml:"target"`
	Events  []string `json:"events" yaml:"events"`
}

// Matches reports whether the rule subscribes to event.
func (r NotificationRule) Matches(event string) bool {
	for _, e := range r.Events {
		if e == event {
			return true
		}
	}
	return false
}
