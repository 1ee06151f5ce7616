package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/rollout/internal/model"
)

// ConfigStore holds versioned deployment configs. Rows are never updated.
type ConfigStore struct {
	db DB
}

func NewConfigStore(db DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Create stores cfg as the next version of cfg.Name and sets cfg.Version.
func (s *ConfigStore) Create(ctx context.Context, cfg *model.DeploymentConfig) error {
	spec, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config %s: %w", cfg.Name, err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO deployment_configs (id, name, version, environment, strategy, spec, created_by, created_at)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7
		 FROM deployment_configs WHERE name = $2
		 RETURNING version`,
		cfg.ID, cfg.Name, cfg.Environment, cfg.Strategy, spec, cfg.CreatedBy, cfg.CreatedAt,
	).Scan(&cfg.Version)
	if err != nil {
		return fmt.Errorf("insert config %s: %w", cfg.Name, err)
	}
	return nil
}

func (s *ConfigStore) Get(ctx context.Context, id string) (*model.DeploymentConfig, error) {
	var (
		spec    []byte
		version int
	)
	err := s.db.QueryRow(ctx,
		`SELECT spec, version FROM deployment_configs WHERE id = $1`, id,
	).Scan(&spec, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("config %s: %w", id, model.ErrConfigNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", id, err)
	}

	var cfg model.DeploymentConfig
	if err := json.Unmarshal(spec, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", id, err)
	}
	cfg.ID = id
	cfg.Version = version
	return &cfg, nil
}

// ConfigSummary is a config row without its full spec.
type ConfigSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Environment string `json:"environment"`
	Strategy    string `json:"strategy"`
	CreatedBy   string `json:"created_by"`
}

// List returns configs ordered by id, optionally filtered by name.
func (s *ConfigStore) List(ctx context.Context, name string, limit int, cursor string) ([]ConfigSummary, bool, error) {
	query := `SELECT id, name, version, environment, strategy, created_by FROM deployment_configs WHERE true`
	var args []any
	argIdx := 1

	if name != "" {
		query += fmt.Sprintf(` AND name = $%d`, argIdx)
		args = append(args, name)
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
		return nil, false, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	var out []ConfigSummary
	for rows.Next() {
		var c ConfigSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.Environment, &c.Strategy, &c.CreatedBy); err != nil {
			return nil, false, fmt.Errorf("scan config: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate configs: %w", err)
	}

	hasMore := len(out) > limit
	if hasMore {
		out = out[:limit]
	}
	return out, hasMore, nil
}
