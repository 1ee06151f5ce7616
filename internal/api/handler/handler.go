// Package handler implements the rollout HTTP API on top of the core services.
package handler

import (
	"context"

	"github.com/edvin/rollout/internal/core"
	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
)

// ConfigService is the part of *core.ConfigService the handlers use.
type ConfigService interface {
	Create(ctx context.Context, cfg *model.DeploymentConfig) error
	Get(ctx context.Context, id string) (*model.DeploymentConfig, error)
	List(ctx context.Context, name string, limit int, cursor string) ([]store.ConfigSummary, bool, error)
}

// DeploymentService is the part of *core.DeploymentService the handlers use.
type DeploymentService interface {
	Start(ctx context.Context, params core.StartParams) (*model.Deployment, error)
	Get(ctx context.Context, id string) (*model.Deployment, error)
	List(ctx context.Context, f store.DeploymentFilter, limit int, cursor string) ([]model.Deployment, bool, error)
	Logs(ctx context.Context, id string, afterSeq int64, limit int) ([]model.LogEntry, bool, error)
	RecordDecision(ctx context.Context, id string, params core.DecisionParams) (*model.Deployment, error)
	DecideRollback(ctx context.Context, id string, decision model.RollbackDecisionSignal) error
}
