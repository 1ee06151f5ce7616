package core

import (
	"context"

	"github.com/google/uuid"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
	"github.com/edvin/rollout/internal/strategy"
)

// ConfigStore is the persistence ConfigService needs. *store.ConfigStore
// satisfies it.
type ConfigStore interface {
	Create(ctx context.Context, cfg *model.DeploymentConfig) error
	Get(ctx context.Context, id string) (*model.DeploymentConfig, error)
	List(ctx context.Context, name string, limit int, cursor string) ([]store.ConfigSummary, bool, error)
}

// DeploymentStore is the persistence DeploymentService needs.
// *store.DeploymentStore satisfies it.
type DeploymentStore interface {
	Insert(ctx context.Context, d *model.Deployment) error
	Get(ctx context.Context, id string) (*model.Deployment, error)
	List(ctx context.Context, f store.DeploymentFilter, limit int, cursor string) ([]model.Deployment, bool, error)
	PreviousVersion(ctx context.Context, configName, environment string) (string, error)
	AppendLog(ctx context.Context, e *model.LogEntry) error
	ListLogs(ctx context.Context, deploymentID string, afterSeq int64, limit int) ([]model.LogEntry, bool, error)
}

type Services struct {
	Config     *ConfigService
	Deployment *DeploymentService
}

func NewServices(db store.DB, tc temporalclient.Client, strategies *strategy.Registry) *Services {
	configs := store.NewConfigStore(db)
	deployments := store.NewDeploymentStore(db)
	return &Services{
		Config:     NewConfigService(configs, strategies),
		Deployment: NewDeploymentService(deployments, configs, tc),
	}
}

func newID() string {
	return uuid.New().String()
}
