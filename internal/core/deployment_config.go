package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
	"github.com/edvin/rollout/internal/strategy"
)

var (
	environments = map[string]bool{
		model.EnvironmentDev:        true,
		model.EnvironmentStaging:    true,
		model.EnvironmentProduction: true,
	}
	checkTypes = map[string]bool{
		model.CheckTypeTestSuite:       true,
		model.CheckTypePerformanceTest: true,
		model.CheckTypeSecurityScan:    true,
		model.CheckTypeHealthCheck:     true,
		model.CheckTypeCustomScript:    true,
	}
	channels = map[string]bool{
		model.ChannelWebhook: true,
		model.ChannelSlack:   true,
		model.ChannelKafka:   true,
	}
	events = map[string]bool{
		model.EventStarted:    true,
		model.EventApproved:   true,
		model.EventRejected:   true,
		model.EventCompleted:  true,
		model.EventFailed:     true,
		model.EventRolledBack: true,
	}
)

type ConfigService struct {
	configs    ConfigStore
	strategies *strategy.Registry
}

func NewConfigService(configs ConfigStore, strategies *strategy.Registry) *ConfigService {
	return &ConfigService{configs: configs, strategies: strategies}
}

// Create validates cfg and stores it as the next version of its name.
func (s *ConfigService) Create(ctx context.Context, cfg *model.DeploymentConfig) error {
	if err := s.Validate(cfg); err != nil {
		return err
	}
	cfg.ID = newID()
	cfg.CreatedAt = time.Now()
	if err := s.configs.Create(ctx, cfg); err != nil {
		return fmt.Errorf("create config %s: %w", cfg.Name, err)
	}
	return nil
}

func (s *ConfigService) Get(ctx context.Context, id string) (*model.DeploymentConfig, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", id, err)
	}
	return cfg, nil
}

func (s *ConfigService) List(ctx context.Context, name string, limit int, cursor string) ([]store.ConfigSummary, bool, error) {
	return s.configs.List(ctx, name, limit, cursor)
}

// Validate checks the parts of a config that struct tags cannot express.
// Errors wrap model.ErrValidation.
func (s *ConfigService) Validate(cfg *model.DeploymentConfig) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
	}

	if cfg.Name == "" {
		return invalid("name is required")
	}
	if !environments[cfg.Environment] {
		return invalid("unknown environment %q", cfg.Environment)
	}
	st, err := s.strategies.Get(cfg.Strategy)
	if err != nil {
		return invalid("%v", err)
	}
	if err := st.Validate(cfg.StrategyOptions); err != nil {
		return invalid("strategy %s: %v", cfg.Strategy, err)
	}

	for i, p := range cfg.Approvals {
		if len(p.RequiredApprovers) == 0 {
			return invalid("approval policy %d has no required approvers", i)
		}
		seen := make(map[string]bool)
		for _, a := range p.RequiredApprovers {
			if a == "" || seen[a] {
				return invalid("approval policy %d has an empty or duplicate approver", i)
			}
			seen[a] = true
		}
		if p.TimeoutMinutes < 0 {
			return invalid("approval policy %d has a negative timeout", i)
		}
	}

	for _, phase := range []struct {
		name   string
		checks []model.CheckSpec
	}{
		{model.PhasePreDeploy, cfg.PreDeployChecks},
		{model.PhasePostDeploy, cfg.PostDeployChecks},
	} {
		ids := make(map[string]bool)
		for _, c := range phase.checks {
			if c.ID == "" || ids[c.ID] {
				return invalid("%s check ids must be unique and non-empty", phase.name)
			}
			ids[c.ID] = true
			if !checkTypes[c.Type] {
				return invalid("check %s has unknown type %q", c.ID, c.Type)
			}
			if c.Type == model.CheckTypeTestSuite && c.Parameters["suiteId"] == "" {
				return invalid("test_suite check %s needs parameter suiteId", c.ID)
			}
			if c.TimeoutMinutes < 0 || c.RetryCount < 0 {
				return invalid("check %s has a negative timeout or retry count", c.ID)
			}
		}
	}

	rp := cfg.RollbackPolicy
	if !rp.Enabled && (rp.ManualApprovalRequired || len(rp.AutomaticTriggers) > 0) {
		return invalid("rollback triggers and manual approval need rollback enabled")
	}
	for _, t := range rp.AutomaticTriggers {
		if t.Type == "" {
			return invalid("rollback trigger without a metric type")
		}
	}

	for _, n := range cfg.Notifications {
		if !channels[n.Channel] {
			return invalid("unknown notification channel %q", n.Channel)
		}
		if n.Channel != model.ChannelKafka && n.Target == "" {
			return invalid("%s notification needs a target", n.Channel)
		}
		for _, e := range n.Events {
			if !events[e] {
				return invalid("unknown notification event %q", e)
			}
		}
	}

	if cfg.MaxDeploymentMinutes < 0 || cfg.StabilizationSeconds < 0 {
		return invalid("durations must not be negative")
	}
	return nil
}
