// Package strategy turns a rollout strategy into an ordered plan of platform
// steps and drives that plan to completion.
package strategy

import (
	"context"
	"time"
)

// Step actions understood by the platform.
const (
	ActionStage   = "stage"
	ActionShift   = "shift"
	ActionCutover = "cutover"
	ActionBatch   = "batch"
)

// Target identifies what is being rolled out and where.
type Target struct {
	DeploymentID    string            `json:"deployment_id"`
	Environment     string            `json:"environment"`
	Version         string            `json:"version"`
	PreviousVersion string            `json:"previous_version,omitempty"`
	Options         map[string]string `json:"options,omitempty"`
}

// Step is one unit of work applied through the platform. The executor waits
// for a step to report ready before moving on.
type Step struct {
	Target
	Index          int    `json:"index"`
	Action         string `json:"action"`
	TrafficPercent int    `json:"traffic_percent,omitempty"`
	Batch          int    `json:"batch,omitempty"`
	Batches        int    `json:"batches,omitempty"`
	// Pause is how long to hold after the step is ready.
	Pause time.Duration `json:"-"`
}

// Strategy plans a rollout.
type Strategy interface {
	Name() string
	// Timeout bounds the whole rollout, including readiness waits.
	Timeout() time.Duration
	// Validate checks strategy-specific options.
	Validate(options map[string]string) error
	Plan(t Target) ([]Step, error)
}

// Platform is the hosting platform's hook surface.
type Platform interface {
	Apply(ctx context.Context, step Step) error
	Ready(ctx context.Context, step Step) (bool, error)
	Revert(ctx context.Context, t Target) error
	// Metric returns the value of a named health metric over the trailing window.
	Metric(ctx context.Context, t Target, name string, window time.Duration) (float64, error)
}
