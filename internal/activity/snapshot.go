package activity

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// BackupService is the backup service API used for pre-deploy snapshots.
// *clients.BackupClient satisfies it.
type BackupService interface {
	CreateSnapshotConfig(ctx context.Context, name string, targets []string) (string, error)
	CreateSnapshot(ctx context.Context, configID string) (string, error)
	RestoreSnapshot(ctx context.Context, snapshotID string) error
}

// Backup contains snapshot and restore activities.
type Backup struct {
	backups BackupService
	logger  zerolog.Logger
}

func NewBackup(backups BackupService, logger zerolog.Logger) *Backup {
	return &Backup{
		backups: backups,
		logger:  logger.With().Str("component", "backup-activity").Logger(),
	}
}

// SnapshotParams holds the parameters for CreatePreDeploySnapshot.
type SnapshotParams struct {
	DeploymentID string   `json:"deployment_id"`
	ConfigName   string   `json:"config_name"`
	Targets      []string `json:"targets,omitempty"`
}

// CreatePreDeploySnapshot captures the current state before rollout and
// returns the snapshot id.
func (a *Backup) CreatePreDeploySnapshot(ctx context.Context, params SnapshotParams) (string, error) {
	name := fmt.Sprintf("%s-predeploy-%s", params.ConfigName, params.DeploymentID)
	configID, err := a.backups.CreateSnapshotConfig(ctx, name, params.Targets)
	if err != nil {
		return "", err
	}
	snapshotID, err := a.backups.CreateSnapshot(ctx, configID)
	if err != nil {
		return "", err
	}
	a.logger.Info().Str("deployment_id", params.DeploymentID).Str("snapshot_id", snapshotID).Msg("pre-deploy snapshot created")
	return snapshotID, nil
}
