package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/rollout/internal/model"
)

// SecurityScan runs a scan job on the check execution service and waits for
// it to finish. The caller's context bounds the wait.
type SecurityScan struct {
	jobs         JobRunner
	pollInterval time.Duration
}

func NewSecurityScan(jobs JobRunner, pollInterval time.Duration) *SecurityScan {
	return &SecurityScan{jobs: jobs, pollInterval: pollInterval}
}

func (s *SecurityScan) Run(ctx context.Context, params map[string]string) (*Result, error) {
	if s.jobs == nil {
		return nil, fmt.Errorf("security scans are not configured")
	}

	jobID, err := s.jobs.StartJob(ctx, model.CheckTypeSecurityScan, params)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		status, err := s.jobs.GetJobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Finished() {
			return &Result{
				Passed: status.Passed,
				Output: status.Output,
				Errors: status.Errors,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("security scan %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}
