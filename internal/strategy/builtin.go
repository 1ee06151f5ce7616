package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edvin/rollout/internal/model"
)

// Option keys.
const (
	OptionSplitPercent   = "split_percent"
	OptionCanarySteps    = "canary_steps"
	OptionCanaryInterval = "canary_interval"
	OptionRollingBatches = "rolling_batches"
)

var defaultCanarySteps = []int{10, 25, 50, 100}

const (
	defaultSplitPercent   = 50
	defaultCanaryInterval = 30 * time.Second
	defaultRollingBatches = 4
)

// Direct switches all traffic to the new version in one step.
type Direct struct{}

func (Direct) Name() string                     { return model.StrategyDirect }
func (Direct) Timeout() time.Duration           { return 10 * time.Minute }
func (Direct) Validate(map[string]string) error { return nil }

func (Direct) Plan(t Target) ([]Step, error) {
	return []Step{{Target: t, Action: ActionCutover, TrafficPercent: 100}}, nil
}

// BlueGreen stages the idle slot, splits traffic between slots and then cuts
// over.
type BlueGreen struct{}

func (BlueGreen) Name() string           { return model.StrategyBlueGreen }
func (BlueGreen) Timeout() time.Duration { return 20 * time.Minute }

func (BlueGreen) Validate(options map[string]string) error {
	_, err := percentOption(options, OptionSplitPercent, defaultSplitPercent)
	return err
}

func (BlueGreen) Plan(t Target) ([]Step, error) {
	split, err := percentOption(t.Options, OptionSplitPercent, defaultSplitPercent)
	if err != nil {
		return nil, err
	}
	steps := []Step{
		{Target: t, Action: ActionStage},
		{Target: t, Action: ActionShift, TrafficPercent: split},
		{Target: t, Action: ActionCutover, TrafficPercent: 100},
	}
	return indexed(steps), nil
}

// Canary shifts traffic in increasing steps with a pause between them.
type Canary struct{}

func (Canary) Name() string           { return model.StrategyCanary }
func (Canary) Timeout() time.Duration { return 30 * time.Minute }

func (Canary) Validate(options map[string]string) error {
	if _, err := canarySteps(options); err != nil {
		return err
	}
	_, err := canaryInterval(options)
	return err
}

func (Canary) Plan(t Target) ([]Step, error) {
	percents, err := canarySteps(t.Options)
	if err != nil {
		return nil, err
	}
	interval, err := canaryInterval(t.Options)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(percents))
	for i, pct := range percents {
		step := Step{Target: t, Action: ActionShift, TrafficPercent: pct}
		if i < len(percents)-1 {
			step.Pause = interval
		} else {
			step.Action = ActionCutover
		}
		steps = append(steps, step)
	}
	return indexed(steps), nil
}

// Rolling replaces instances in a fixed number of batches.
type Rolling struct{}

func (Rolling) Name() string           { return model.StrategyRolling }
func (Rolling) Timeout() time.Duration { return 45 * time.Minute }

func (Rolling) Validate(options map[string]string) error {
	_, err := rollingBatches(options)
	return err
}

func (Rolling) Plan(t Target) ([]Step, error) {
	batches, err := rollingBatches(t.Options)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, batches)
	for b := 1; b <= batches; b++ {
		steps = append(steps, Step{
			Target:         t,
			Action:         ActionBatch,
			Batch:          b,
			Batches:        batches,
			TrafficPercent: b * 100 / batches,
		})
	}
	return indexed(steps), nil
}

func indexed(steps []Step) []Step {
	for i := range steps {
		steps[i].Index = i
	}
	return steps
}

func percentOption(options map[string]string, key string, fallback int) (int, error) {
	v, ok := options[key]
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 || n > 100 {
		return 0, fmt.Errorf("%s must be an integer between 1 and 100, got %q", key, v)
	}
	return n, nil
}

// canarySteps parses a comma separated list of strictly increasing
// percentages ending at 100.
func canarySteps(options map[string]string) ([]int, error) {
	v := options[OptionCanarySteps]
	if v == "" {
		return defaultCanarySteps, nil
	}

	var out []int
	prev := 0
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= prev || n > 100 {
			return nil, fmt.Errorf("%s must be increasing percentages between 1 and 100, got %q", OptionCanarySteps, v)
		}
		out = append(out, n)
		prev = n
	}
	if prev != 100 {
		return nil, fmt.Errorf("%s must end at 100, got %q", OptionCanarySteps, v)
	}
	return out, nil
}

func canaryInterval(options map[string]string) (time.Duration, error) {
	v := options[OptionCanaryInterval]
	if v == "" {
		return defaultCanaryInterval, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration, got %q", OptionCanaryInterval, v)
	}
	return d, nil
}

func rollingBatches(options map[string]string) (int, error) {
	v := options[OptionRollingBatches]
	if v == "" {
		return defaultRollingBatches, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 100 {
		return 0, fmt.Errorf("%s must be an integer between 1 and 100, got %q", OptionRollingBatches, v)
	}
	return n, nil
}
