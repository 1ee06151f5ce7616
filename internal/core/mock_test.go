package core

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
)

// ---------- Mock ConfigStore ----------

type mockConfigStore struct {
	mock.Mock
}

func (m *mockConfigStore) Create(ctx context.Context, cfg *model.DeploymentConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *mockConfigStore) Get(ctx context.Context, id string) (*model.DeploymentConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeploymentConfig), args.Error(1)
}

func (m *mockConfigStore) List(ctx context.Context, name string, limit int, cursor string) ([]store.ConfigSummary, bool, error) {
	args := m.Called(ctx, name, limit, cursor)
	return args.Get(0).([]store.ConfigSummary), args.Bool(1), args.Error(2)
}

// ---------- Mock DeploymentStore ----------

type mockDeploymentStore struct {
	mock.Mock
}

func (m *mockDeploymentStore) Insert(ctx context.Context, d *model.Deployment) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDeploymentStore) Get(ctx context.Context, id string) (*model.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deployment), args.Error(1)
}

func (m *mockDeploymentStore) List(ctx context.Context, f store.DeploymentFilter, limit int, cursor string) ([]model.Deployment, bool, error) {
	args := m.Called(ctx, f, limit, cursor)
	return args.Get(0).([]model.Deployment), args.Bool(1), args.Error(2)
}

func (m *mockDeploymentStore) PreviousVersion(ctx context.Context, configName, environment string) (string, error) {
	args := m.Called(ctx, configName, environment)
	return args.String(0), args.Error(1)
}

func (m *mockDeploymentStore) AppendLog(ctx context.Context, e *model.LogEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockDeploymentStore) ListLogs(ctx context.Context, deploymentID string, afterSeq int64, limit int) ([]model.LogEntry, bool, error) {
	args := m.Called(ctx, deploymentID, afterSeq, limit)
	return args.Get(0).([]model.LogEntry), args.Bool(1), args.Error(2)
}
