package workflow

import (
	"fmt"
	"strconv"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/clients"
	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/probe"
)

// checkOutcome is what a single check run produced.
type checkOutcome struct {
	passed bool
	output string
	errors []string
}

func failedOutcome(format string, args ...any) checkOutcome {
	msg := fmt.Sprintf(format, args...)
	return checkOutcome{output: msg, errors: []string{msg}}
}

func timeoutOutcome(spec model.CheckSpec) checkOutcome {
	return failedOutcome("%s: check %s did not finish within %s", model.ErrTypeCheckTimeout, spec.ID, spec.Timeout())
}

// runChecks runs the phase's checks one at a time in declared order and
// reports whether every required check passed. Failed checks never stop the
// remaining ones; only cancellation and store errors are returned.
func (r *deploymentRun) runChecks(ctx workflow.Context, phase string, specs []model.CheckSpec) (bool, error) {
	passed := true
	for _, spec := range specs {
		ok, err := r.runCheck(ctx, phase, spec)
		if err != nil {
			return false, err
		}
		if !ok && spec.Required {
			passed = false
		}
	}
	return passed, nil
}

func (r *deploymentRun) runCheck(ctx workflow.Context, phase string, spec model.CheckSpec) (bool, error) {
	start := workflow.Now(ctx)
	result := model.CheckResult{
		CheckID:   spec.ID,
		Name:      spec.Name,
		Type:      spec.Type,
		Phase:     phase,
		Required:  spec.Required,
		Status:    model.CheckRunning,
		StartTime: &start,
	}
	if err := r.updateCheck(ctx, result); err != nil {
		return false, err
	}
	r.log(ctx, model.LogInfo, phase, fmt.Sprintf("Running %s check %s", spec.Type, spec.Name))
	if spec.RetryCount > 0 {
		r.log(ctx, model.LogDebug, phase, fmt.Sprintf("Check %s declares retry_count %d; checks run once", spec.Name, spec.RetryCount))
	}

	var (
		outcome checkOutcome
		err     error
	)
	if spec.Type == model.CheckTypeTestSuite {
		outcome, err = r.runTestSuite(ctx, spec)
	} else {
		outcome, err = r.runProbe(ctx, spec)
	}
	if err != nil {
		return false, err
	}

	end := workflow.Now(ctx)
	result.EndTime = &end
	result.Output = outcome.output
	result.Errors = outcome.errors
	result.Status = model.CheckFailed
	if outcome.passed {
		result.Status = model.CheckPassed
	}
	if err := r.updateCheck(ctx, result); err != nil {
		return false, err
	}

	switch {
	case outcome.passed:
		r.log(ctx, model.LogInfo, phase, fmt.Sprintf("Check %s passed", spec.Name))
	case spec.Required:
		r.log(ctx, model.LogError, phase, fmt.Sprintf("Required check %s failed: %s", spec.Name, outcome.output))
	default:
		r.log(ctx, model.LogWarn, phase, fmt.Sprintf("Optional check %s failed: %s", spec.Name, outcome.output))
	}
	return outcome.passed, nil
}

// runTestSuite starts the suite and polls the run until it finishes or the
// check's timeout passes.
func (r *deploymentRun) runTestSuite(ctx workflow.Context, spec model.CheckSpec) (checkOutcome, error) {
	suiteID := spec.Parameters["suiteId"]
	if suiteID == "" {
		return failedOutcome("check %s: missing parameter suiteId", spec.ID), nil
	}
	minRate := r.minSuccessRate()
	if v, ok := spec.Parameters["minSuccessRate"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return failedOutcome("check %s: invalid minSuccessRate %q", spec.ID, v), nil
		}
		minRate = f
	}

	dl := newDeadline(ctx, spec.Timeout())
	pollCtx := withCheckPollOptions(ctx)

	var runID string
	if err := workflow.ExecuteActivity(pollCtx, "StartTestSuite", suiteID).Get(ctx, &runID); err != nil {
		if isCanceled(ctx, err) {
			return checkOutcome{}, err
		}
		return failedOutcome("start test suite %s: %s", suiteID, errMessage(err)), nil
	}

	for {
		var st clients.RunStatus
		if err := workflow.ExecuteActivity(pollCtx, "GetTestRunStatus", runID).Get(ctx, &st); err != nil {
			if isCanceled(ctx, err) {
				return checkOutcome{}, err
			}
			return failedOutcome("poll test run %s: %s", runID, errMessage(err)), nil
		}
		if st.Finished() {
			out := fmt.Sprintf("Test run %s %s: %d passed, %d failed, success rate %.2f (minimum %.2f)",
				runID, st.Status, st.Passed, st.Failed, st.SuccessRate, minRate)
			if st.Status == clients.RunCompleted && st.SuccessRate >= minRate {
				return checkOutcome{passed: true, output: out}, nil
			}
			return checkOutcome{output: out, errors: []string{out}}, nil
		}
		if !dl.sleep(ctx, r.pollInterval()) {
			if ctx.Err() != nil {
				return checkOutcome{}, ctx.Err()
			}
			return timeoutOutcome(spec), nil
		}
	}
}

// runProbe runs the probe for the check type as a single activity attempt
// bounded by the check's timeout.
func (r *deploymentRun) runProbe(ctx workflow.Context, spec model.CheckSpec) (checkOutcome, error) {
	var res probe.Result
	err := workflow.ExecuteActivity(withSingleAttempt(ctx, spec.Timeout()), "RunProbe", activity.RunProbeParams{
		CheckID:    spec.ID,
		CheckType:  spec.Type,
		Parameters: spec.Parameters,
	}).Get(ctx, &res)
	switch {
	case err != nil && isCanceled(ctx, err):
		return checkOutcome{}, err
	case err != nil && temporal.IsTimeoutError(err):
		return timeoutOutcome(spec), nil
	case err != nil:
		return failedOutcome("%s check %s: %s", spec.Type, spec.ID, errMessage(err)), nil
	}
	return checkOutcome{passed: res.Passed, output: res.Output, errors: res.Errors}, nil
}

func (r *deploymentRun) updateCheck(ctx workflow.Context, result model.CheckResult) error {
	err := workflow.ExecuteActivity(withStoreOptions(ctx), "UpdateCheckResult", activity.UpdateCheckResultParams{
		DeploymentID: r.dep.ID,
		Result:       result,
	}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("update check %s: %w", result.CheckID, err)
	}
	return nil
}
