package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Run and job states reported by the check execution service.
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// RunStatus is the progress of a test suite run.
type RunStatus struct {
	Status      string  `json:"status"`
	SuccessRate float64 `json:"success_rate"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Summary     string  `json:"summary,omitempty"`
}

// Finished reports whether the run has reached a final state.
func (s RunStatus) Finished() bool {
	return s.Status == RunCompleted || s.Status == RunFailed || s.Status == RunCancelled
}

// JobStatus is the progress of a validation job such as a security scan.
type JobStatus struct {
	Status string   `json:"status"`
	Passed bool     `json:"passed"`
	Output string   `json:"output,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func (s JobStatus) Finished() bool {
	return s.Status == RunCompleted || s.Status == RunFailed || s.Status == RunCancelled
}

// CheckRunClient is a client for the check execution service.
type CheckRunClient struct {
	baseClient
}

func NewCheckRunClient(baseURL, token string) *CheckRunClient {
	return &CheckRunClient{baseClient: newBaseClient(baseURL, token)}
}

// StartSuite starts an asynchronous run of suiteID and returns the run id.
func (c *CheckRunClient) StartSuite(ctx context.Context, suiteID string) (string, error) {
	var resp idResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/test-suites/"+url.PathEscape(suiteID)+"/runs", nil, &resp); err != nil {
		return "", fmt.Errorf("start test suite %s: %w", suiteID, err)
	}
	return resp.ID, nil
}

func (c *CheckRunClient) GetRunStatus(ctx context.Context, runID string) (*RunStatus, error) {
	var status RunStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/test-runs/"+url.PathEscape(runID), nil, &status); err != nil {
		return nil, fmt.Errorf("get test run %s: %w", runID, err)
	}
	return &status, nil
}

// StartJob starts a validation job of jobType and returns the job id.
func (c *CheckRunClient) StartJob(ctx context.Context, jobType string, params map[string]string) (string, error) {
	var resp idResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/jobs", map[string]any{
		"type":       jobType,
		"parameters": params,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("start %s job: %w", jobType, err)
	}
	return resp.ID, nil
}

func (c *CheckRunClient) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(jobID), nil, &status); err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return &status, nil
}
