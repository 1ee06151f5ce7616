package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/edvin/rollout/internal/model"
)

// memStore is an in-memory DeploymentStore.
type memStore struct {
	mu          sync.Mutex
	deployments map[string]*model.Deployment
	logs        []model.LogEntry
	cleaned     int
	// logFailures fails that many UpdateWithLog log writes; the record
	// change rolls back with them.
	logFailures int
}

func newMemStore() *memStore {
	return &memStore{
		deployments: make(map[string]*model.Deployment),
	}
}

func (m *memStore) put(d *model.Deployment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployments[d.ID] = d
}

func (m *memStore) Get(_ context.Context, id string) (*model.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return nil, fmt.Errorf("deployment %s: %w", id, model.ErrDeploymentNotFound)
	}
	cp := *d
	cp.Checks = append([]model.CheckResult(nil), d.Checks...)
	cp.Approvals = append([]model.ApprovalDecision(nil), d.Approvals...)
	cp.Artifacts = append([]model.Artifact(nil), d.Artifacts...)
	return &cp, nil
}

func (m *memStore) Update(ctx context.Context, id string, mutate func(d *model.Deployment) error) (*model.Deployment, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(d); err != nil {
		return nil, err
	}
	d.Revision++
	m.put(d)
	return d, nil
}

func (m *memStore) UpdateWithLog(ctx context.Context, id string, mutate func(d *model.Deployment) (*model.LogEntry, error)) (*model.Deployment, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, err := mutate(d)
	if err != nil || entry == nil {
		return d, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logFailures > 0 {
		m.logFailures--
		return nil, errors.New("append log: connection reset")
	}
	d.Revision++
	m.deployments[id] = d
	entry.DeploymentID = id
	entry.Seq = int64(len(m.logs) + 1)
	m.logs = append(m.logs, *entry)
	return d, nil
}

func (m *memStore) AppendLog(_ context.Context, e *model.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Seq = int64(len(m.logs) + 1)
	m.logs = append(m.logs, *e)
	return nil
}

func (m *memStore) ListLogs(_ context.Context, deploymentID string, afterSeq int64, limit int) ([]model.LogEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LogEntry
	for _, e := range m.logs {
		if e.DeploymentID == deploymentID && e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}

func (m *memStore) CleanupAuditLogs(_ context.Context, retentionDays int) (int64, error) {
	m.cleaned = retentionDays
	return 4, nil
}

type memConfigs struct {
	configs map[string]*model.DeploymentConfig
}

func (m *memConfigs) Get(_ context.Context, id string) (*model.DeploymentConfig, error) {
	c, ok := m.configs[id]
	if !ok {
		return nil, fmt.Errorf("config %s: %w", id, model.ErrConfigNotFound)
	}
	return c, nil
}

type fakeBackups struct {
	restored   []string
	restoreErr error
	createErr  error
}

func (f *fakeBackups) CreateSnapshotConfig(_ context.Context, name string, _ []string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "cfg-" + name, nil
}

func (f *fakeBackups) CreateSnapshot(context.Context, string) (string, error) {
	return "snap-1", nil
}

func (f *fakeBackups) RestoreSnapshot(_ context.Context, id string) error {
	f.restored = append(f.restored, id)
	return f.restoreErr
}
