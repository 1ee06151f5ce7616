package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/rollout/internal/core"
	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
)

type mockConfigService struct {
	mock.Mock
}

func (m *mockConfigService) Create(ctx context.Context, cfg *model.DeploymentConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *mockConfigService) Get(ctx context.Context, id string) (*model.DeploymentConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeploymentConfig), args.Error(1)
}

func (m *mockConfigService) List(ctx context.Context, name string, limit int, cursor string) ([]store.ConfigSummary, bool, error) {
	args := m.Called(ctx, name, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]store.ConfigSummary), args.Bool(1), args.Error(2)
}

type mockDeploymentService struct {
	mock.Mock
}

func (m *mockDeploymentService) Start(ctx context.Context, params core.StartParams) (*model.Deployment, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deployment), args.Error(1)
}

func (m *mockDeploymentService) Get(ctx context.Context, id string) (*model.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deployment), args.Error(1)
}

func (m *mockDeploymentService) List(ctx context.Context, f store.DeploymentFilter, limit int, cursor string) ([]model.Deployment, bool, error) {
	args := m.Called(ctx, f, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.Deployment), args.Bool(1), args.Error(2)
}

func (m *mockDeploymentService) Logs(ctx context.Context, id string, afterSeq int64, limit int) ([]model.LogEntry, bool, error) {
	args := m.Called(ctx, id, afterSeq, limit)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.LogEntry), args.Bool(1), args.Error(2)
}

func (m *mockDeploymentService) RecordDecision(ctx context.Context, id string, params core.DecisionParams) (*model.Deployment, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deployment), args.Error(1)
}

func (m *mockDeploymentService) DecideRollback(ctx context.Context, id string, decision model.RollbackDecisionSignal) error {
	return m.Called(ctx, id, decision).Error(0)
}
