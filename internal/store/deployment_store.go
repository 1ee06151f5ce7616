package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/rollout/internal/model"
)

// maxUpdateAttempts bounds the optimistic read-modify-write loop in Update.
const maxUpdateAttempts = 5

const deploymentColumns = `id, config_id, config_name, config_version, version, previous_version, environment, strategy,
	status, status_message, deployed_by, approvals, checks, artifacts, rollback, snapshot_id, workflow_id,
	revision, start_time, end_time, created_at, updated_at`

// DeploymentStore persists deployment records and their append-only logs.
type DeploymentStore struct {
	db DB
}

func NewDeploymentStore(db DB) *DeploymentStore {
	return &DeploymentStore{db: db}
}

func (s *DeploymentStore) Insert(ctx context.Context, d *model.Deployment) error {
	approvals, checks, artifacts, rollback, err := marshalDeploymentJSON(d)
	if err != nil {
		return err
	}
	if d.Revision == 0 {
		d.Revision = 1
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO deployments (`+deploymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		d.ID, d.ConfigID, d.ConfigName, d.ConfigVersion, d.Version, d.PreviousVersion, d.Environment, d.Strategy,
		d.Status, d.StatusMessage, d.DeployedBy, approvals, checks, artifacts, rollback, d.SnapshotID, d.WorkflowID,
		d.Revision, d.StartTime, d.EndTime, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deployment %s: %w", d.ID, err)
	}
	return nil
}

func (s *DeploymentStore) Get(ctx context.Context, id string) (*model.Deployment, error) {
	return getDeployment(ctx, s.db, id)
}

func getDeployment(ctx context.Context, q querier, id string) (*model.Deployment, error) {
	d, err := scanDeployment(q.QueryRow(ctx,
		`SELECT `+deploymentColumns+` FROM deployments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deployment %s: %w", id, model.ErrDeploymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get deployment %s: %w", id, err)
	}
	return d, nil
}

// DeploymentFilter narrows List. Empty fields match everything.
type DeploymentFilter struct {
	Status      string
	Environment string
	ConfigName  string
}

func (s *DeploymentStore) List(ctx context.Context, f DeploymentFilter, limit int, cursor string) ([]model.Deployment, bool, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE true`
	var args []any
	argIdx := 1

	for _, cond := range []struct{ column, value string }{
		{"status", f.Status},
		{"environment", f.Environment},
		{"config_name", f.ConfigName},
	} {
		if cond.value == "" {
			continue
		}
		query += fmt.Sprintf(` AND %s = $%d`, cond.column, argIdx)
		args = append(args, cond.value)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var out []model.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan deployment: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate deployments: %w", err)
	}

	hasMore := len(out) > limit
	if hasMore {
		out = out[:limit]
	}
	return out, hasMore, nil
}

// Update applies mutate to the current record and writes it back if nobody
// else changed it in between, retrying on conflict. An error from mutate is
// returned unchanged and nothing is written.
func (s *DeploymentStore) Update(ctx context.Context, id string, mutate func(d *model.Deployment) error) (*model.Deployment, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		d, err := getDeployment(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(d); err != nil {
			return nil, err
		}

		ok, err := writeRevision(ctx, s.db, d)
		if err != nil {
			return nil, err
		}
		if ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("update deployment %s: %w", id, model.ErrRevisionConflict)
}

// UpdateWithLog is Update for changes that must be logged. The record and
// the entry returned by mutate commit in one transaction, so a change is
// never stored without its log line. A nil entry means mutate changed
// nothing and nothing is written.
func (s *DeploymentStore) UpdateWithLog(ctx context.Context, id string, mutate func(d *model.Deployment) (*model.LogEntry, error)) (*model.Deployment, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		d, done, err := s.updateWithLog(ctx, id, mutate)
		if err != nil {
			return nil, err
		}
		if done {
			return d, nil
		}
	}
	return nil, fmt.Errorf("update deployment %s: %w", id, model.ErrRevisionConflict)
}

// updateWithLog makes one transactional attempt. It reports done=false when
// a concurrent writer won the revision or the log sequence.
func (s *DeploymentStore) updateWithLog(ctx context.Context, id string, mutate func(d *model.Deployment) (*model.LogEntry, error)) (*model.Deployment, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin update of deployment %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	d, err := getDeployment(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	entry, err := mutate(d)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return d, true, nil
	}

	ok, err := writeRevision(ctx, tx, d)
	if err != nil || !ok {
		return nil, false, err
	}

	entry.DeploymentID = d.ID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	err = insertLog(ctx, tx, entry)
	if isUniqueViolation(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("append log for deployment %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit update of deployment %s: %w", id, err)
	}
	return d, true, nil
}

// writeRevision stores d if its revision is still current and bumps
// d.Revision. It reports false when another writer got there first.
func writeRevision(ctx context.Context, q querier, d *model.Deployment) (bool, error) {
	approvals, checks, artifacts, rollback, err := marshalDeploymentJSON(d)
	if err != nil {
		return false, err
	}

	var revision int64
	err = q.QueryRow(ctx,
		`UPDATE deployments
		 SET status = $1, status_message = $2, approvals = $3, checks = $4, artifacts = $5, rollback = $6,
		     snapshot_id = $7, end_time = $8, revision = revision + 1, updated_at = now()
		 WHERE id = $9 AND revision = $10
		 RETURNING revision`,
		d.Status, d.StatusMessage, approvals, checks, artifacts, rollback,
		d.SnapshotID, d.EndTime, d.ID, d.Revision,
	).Scan(&revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update deployment %s: %w", d.ID, err)
	}
	d.Revision = revision
	return true, nil
}

// PreviousVersion returns the version of the last completed deployment of
// configName to environment, or "" if there is none.
func (s *DeploymentStore) PreviousVersion(ctx context.Context, configName, environment string) (string, error) {
	var version string
	err := s.db.QueryRow(ctx,
		`SELECT version FROM deployments
		 WHERE config_name = $1 AND environment = $2 AND status = $3
		 ORDER BY created_at DESC LIMIT 1`,
		configName, environment, model.StatusCompleted,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("previous version of %s in %s: %w", configName, environment, err)
	}
	return version, nil
}

// AppendLog inserts e with the next sequence number for its deployment and
// sets e.Seq.
func (s *DeploymentStore) AppendLog(ctx context.Context, e *model.LogEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := insertLog(ctx, s.db, e)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("append log for deployment %s: %w", e.DeploymentID, err)
		}
		return nil
	}
	return fmt.Errorf("append log for deployment %s: %w", e.DeploymentID, model.ErrRevisionConflict)
}

func insertLog(ctx context.Context, q querier, e *model.LogEntry) error {
	return q.QueryRow(ctx,
		`INSERT INTO deployment_logs (deployment_id, seq, level, phase, message, created_at)
		 SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5
		 FROM deployment_logs WHERE deployment_id = $1
		 RETURNING seq`,
		e.DeploymentID, e.Level, e.Phase, e.Message, e.Timestamp,
	).Scan(&e.Seq)
}

// ListLogs returns log entries with seq > afterSeq in sequence order.
func (s *DeploymentStore) ListLogs(ctx context.Context, deploymentID string, afterSeq int64, limit int) ([]model.LogEntry, bool, error) {
	rows, err := s.db.Query(ctx,
		`SELECT deployment_id, seq, level, phase, message, created_at
		 FROM deployment_logs WHERE deployment_id = $1 AND seq > $2
		 ORDER BY seq LIMIT $3`,
		deploymentID, afterSeq, limit+1,
	)
	if err != nil {
		return nil, false, fmt.Errorf("list logs for deployment %s: %w", deploymentID, err)
	}
	defer rows.Close()

	var out []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(&e.DeploymentID, &e.Seq, &e.Level, &e.Phase, &e.Message, &e.Timestamp); err != nil {
			return nil, false, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate log entries: %w", err)
	}

	hasMore := len(out) > limit
	if hasMore {
		out = out[:limit]
	}
	return out, hasMore, nil
}

// CleanupAuditLogs deletes audit rows older than retentionDays and returns
// how many were removed.
func (s *DeploymentStore) CleanupAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM audit_logs WHERE created_at < now() - make_interval(days => $1)`, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("delete old audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalDeploymentJSON(d *model.Deployment) (approvals, checks, artifacts, rollback []byte, err error) {
	if approvals, err = json.Marshal(nonNil(d.Approvals)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal approvals: %w", err)
	}
	if checks, err = json.Marshal(nonNil(d.Checks)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal checks: %w", err)
	}
	if artifacts, err = json.Marshal(nonNil(d.Artifacts)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal artifacts: %w", err)
	}
	if d.Rollback != nil {
		if rollback, err = json.Marshal(d.Rollback); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal rollback: %w", err)
		}
	}
	return approvals, checks, artifacts, rollback, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanDeployment(row pgx.Row) (*model.Deployment, error) {
	var (
		d                                      model.Deployment
		approvals, checks, artifacts, rollback []byte
	)
	err := row.Scan(&d.ID, &d.ConfigID, &d.ConfigName, &d.ConfigVersion, &d.Version, &d.PreviousVersion,
		&d.Environment, &d.Strategy, &d.Status, &d.StatusMessage, &d.DeployedBy,
		&approvals, &checks, &artifacts, &rollback, &d.SnapshotID, &d.WorkflowID,
		&d.Revision, &d.StartTime, &d.EndTime, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(approvals, &d.Approvals); err != nil {
		return nil, fmt.Errorf("decode approvals: %w", err)
	}
	if err := decodeJSON(checks, &d.Checks); err != nil {
		return nil, fmt.Errorf("decode checks: %w", err)
	}
	if err := decodeJSON(artifacts, &d.Artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	if len(rollback) > 0 {
		d.Rollback = &model.RollbackRecord{}
		if err := json.Unmarshal(rollback, d.Rollback); err != nil {
			return nil, fmt.Errorf("decode rollback: %w", err)
		}
	}
	return &d, nil
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
