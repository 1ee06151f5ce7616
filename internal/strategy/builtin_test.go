package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/rollout/internal/model"
)

func TestDirect_Plan(t *testing.T) {
	steps, err := Direct{}.Plan(Target{DeploymentID: "d1", Version: "v2"})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, ActionCutover, steps[0].Action)
	assert.Equal(t, 100, steps[0].TrafficPercent)
	assert.Equal(t, "v2", steps[0].Version)
}

func TestBlueGreen_Plan_DefaultSplit(t *testing.T) {
	steps, err := BlueGreen{}.Plan(Target{})
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, ActionStage, steps[0].Action)
	assert.Equal(t, ActionShift, steps[1].Action)
	assert.Equal(t, 50, steps[1].TrafficPercent)
	assert.Equal(t, ActionCutover, steps[2].Action)
	assert.Equal(t, 2, steps[2].Index)
}

func TestBlueGreen_Plan_CustomSplit(t *testing.T) {
	steps, err := BlueGreen{}.Plan(Target{Options: map[string]string{OptionSplitPercent: "20"}})
	require.NoError(t, err)
	assert.Equal(t, 20, steps[1].TrafficPercent)
}

func TestCanary_Plan_Defaults(t *testing.T) {
	steps, err := Canary{}.Plan(Target{})
	require.NoError(t, err)
	require.Len(t, steps, 4)

	var percents []int
	for _, s := range steps {
		percents = append(percents, s.TrafficPercent)
	}
	assert.Equal(t, []int{10, 25, 50, 100}, percents)
	assert.Equal(t, 30*time.Second, steps[0].Pause)
	assert.Equal(t, time.Duration(0), steps[3].Pause)
	assert.Equal(t, ActionCutover, steps[3].Action)
}

func TestCanary_Plan_CustomOptions(t *testing.T) {
	steps, err := Canary{}.Plan(Target{Options: map[string]string{
		OptionCanarySteps:    "5, 50,100",
		OptionCanaryInterval: "1m",
	}})
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, 5, steps[0].TrafficPercent)
	assert.Equal(t, time.Minute, steps[1].Pause)
}

func TestCanary_Validate(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"not increasing", map[string]string{OptionCanarySteps: "50,25,100"}, true},
		{"not ending at 100", map[string]string{OptionCanarySteps: "10,50"}, true},
		{"garbage", map[string]string{OptionCanarySteps: "ten"}, true},
		{"bad interval", map[string]string{OptionCanaryInterval: "often"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Canary{}.Validate(tt.options)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRolling_Plan(t *testing.T) {
	steps, err := Rolling{}.Plan(Target{})
	require.NoError(t, err)
	require.Len(t, steps, 4)
	for i, s := range steps {
		assert.Equal(t, ActionBatch, s.Action)
		assert.Equal(t, i+1, s.Batch)
		assert.Equal(t, 4, s.Batches)
	}
	assert.Equal(t, 100, steps[3].TrafficPercent)
}

func TestRolling_Validate(t *testing.T) {
	assert.NoError(t, Rolling{}.Validate(map[string]string{OptionRollingBatches: "2"}))
	assert.Error(t, Rolling{}.Validate(map[string]string{OptionRollingBatches: "0"}))
}

func TestTimeouts_RollingIsLongest(t *testing.T) {
	assert.Equal(t, 10*time.Minute, Direct{}.Timeout())
	assert.Equal(t, 20*time.Minute, BlueGreen{}.Timeout())
	assert.Equal(t, 30*time.Minute, Canary{}.Timeout())
	assert.Equal(t, 45*time.Minute, Rolling{}.Timeout())
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{
		model.StrategyBlueGreen, model.StrategyCanary, model.StrategyDirect, model.StrategyRolling,
	}, r.List())

	s, err := r.Get(model.StrategyCanary)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyCanary, s.Name())

	_, err = r.Get("big_bang")
	assert.Error(t, err)
}
