package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// BackupClient is a client for the backup service.
type BackupClient struct {
	baseClient
}

func NewBackupClient(baseURL, token string) *BackupClient {
	return &BackupClient{baseClient: newBaseClient(baseURL, token)}
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateSnapshotConfig registers what a snapshot should capture and returns
// the snapshot config id.
func (c *BackupClient) CreateSnapshotConfig(ctx context.Context, name string, targets []string) (string, error) {
	var resp idResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/snapshot-configs", map[string]any{
		"name":    name,
		"targets": targets,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create snapshot config: %w", err)
	}
	return resp.ID, nil
}

// CreateSnapshot takes a snapshot using configID and returns the snapshot id.
func (c *BackupClient) CreateSnapshot(ctx context.Context, configID string) (string, error) {
	var resp idResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/snapshot-configs/"+url.PathEscape(configID)+"/snapshots", nil, &resp)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	return resp.ID, nil
}

func (c *BackupClient) RestoreSnapshot(ctx context.Context, snapshotID string) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/snapshots/"+url.PathEscape(snapshotID)+"/restore", nil, nil); err != nil {
		return fmt.Errorf("restore snapshot %s: %w", snapshotID, err)
	}
	return nil
}
