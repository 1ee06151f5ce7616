package activity

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/edvin/rollout/internal/clients"
	"github.com/edvin/rollout/internal/probe"
)

// CheckService is the check execution service API used for test suites.
// *clients.CheckRunClient satisfies it.
type CheckService interface {
	StartSuite(ctx context.Context, suiteID string) (string, error)
	GetRunStatus(ctx context.Context, runID string) (*clients.RunStatus, error)
}

// Checks contains activities that run deployment checks.
type Checks struct {
	service CheckService
	probes  *probe.Registry
}

func NewChecks(service CheckService, probes *probe.Registry) *Checks {
	return &Checks{service: service, probes: probes}
}

// StartTestSuite starts a test suite run and returns its run id.
func (a *Checks) StartTestSuite(ctx context.Context, suiteID string) (string, error) {
	return a.service.StartSuite(ctx, suiteID)
}

func (a *Checks) GetTestRunStatus(ctx context.Context, runID string) (*clients.RunStatus, error) {
	return a.service.GetRunStatus(ctx, runID)
}

// RunProbeParams holds the parameters for RunProbe.
type RunProbeParams struct {
	CheckID    string            `json:"check_id"`
	CheckType  string            `json:"check_type"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// RunProbe runs the probe registered for the check type. A probe that cannot
// be carried out yields a failed result rather than an activity error.
func (a *Checks) RunProbe(ctx context.Context, params RunProbeParams) (*probe.Result, error) {
	p, err := a.probes.Get(params.CheckType)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "UNKNOWN_CHECK_TYPE", err)
	}

	res, err := p.Run(ctx, params.Parameters)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := fmt.Sprintf("%s check %s could not run: %v", params.CheckType, params.CheckID, err)
		return &probe.Result{Passed: false, Output: msg, Errors: []string{err.Error()}}, nil
	}
	return res, nil
}
