package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/edvin/rollout/internal/strategy"
)

// PlatformClient drives the hosting platform's rollout hooks. It implements
// strategy.Platform.
type PlatformClient struct {
	baseClient
}

var _ strategy.Platform = (*PlatformClient)(nil)

func NewPlatformClient(baseURL, token string) *PlatformClient {
	return &PlatformClient{baseClient: newBaseClient(baseURL, token)}
}

func rolloutPath(deploymentID string) string {
	return "/api/v1/rollouts/" + url.PathEscape(deploymentID)
}

func (c *PlatformClient) Apply(ctx context.Context, step strategy.Step) error {
	if err := c.do(ctx, http.MethodPost, rolloutPath(step.DeploymentID)+"/steps", step, nil); err != nil {
		return fmt.Errorf("apply step %d: %w", step.Index, err)
	}
	return nil
}

func (c *PlatformClient) Ready(ctx context.Context, step strategy.Step) (bool, error) {
	var resp struct {
		Ready bool `json:"ready"`
	}
	path := rolloutPath(step.DeploymentID) + "/steps/" + strconv.Itoa(step.Index)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, fmt.Errorf("step %d readiness: %w", step.Index, err)
	}
	return resp.Ready, nil
}

// Revert routes all traffic back to t.PreviousVersion.
func (c *PlatformClient) Revert(ctx context.Context, t strategy.Target) error {
	if err := c.do(ctx, http.MethodPost, rolloutPath(t.DeploymentID)+"/revert", t, nil); err != nil {
		return fmt.Errorf("revert rollout: %w", err)
	}
	return nil
}

func (c *PlatformClient) Metric(ctx context.Context, t strategy.Target, name string, window time.Duration) (float64, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("window", window.String())
	q.Set("environment", t.Environment)

	var resp struct {
		Value float64 `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, rolloutPath(t.DeploymentID)+"/metrics?"+q.Encode(), nil, &resp); err != nil {
		return 0, fmt.Errorf("read metric %s: %w", name, err)
	}
	return resp.Value, nil
}
