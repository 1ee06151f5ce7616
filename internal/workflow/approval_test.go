package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edvin/rollout/internal/model"
)

func slots(statuses ...string) []model.ApprovalDecision {
	out := make([]model.ApprovalDecision, len(statuses))
	for i, s := range statuses {
		out[i] = model.ApprovalDecision{ApproverID: string(rune('a' + i)), Status: s}
	}
	return out
}

func TestResolveApprovals(t *testing.T) {
	tests := []struct {
		name    string
		slots   []model.ApprovalDecision
		want    string
		decider string
	}{
		{"all pending", slots(model.DecisionPending, model.DecisionPending), model.DecisionPending, ""},
		{"partially approved", slots(model.DecisionApproved, model.DecisionPending), model.DecisionPending, ""},
		{"all approved", slots(model.DecisionApproved, model.DecisionApproved), model.DecisionApproved, ""},
		{"one rejection wins", slots(model.DecisionApproved, model.DecisionPending, model.DecisionRejected), model.DecisionRejected, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, decider := resolveApprovals(tt.slots)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.decider, decider)
		})
	}
}

func TestApplyDecision(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := []model.ApprovalDecision{
		{ApproverID: "bob", PolicyIndex: 0, Status: model.DecisionPending},
		{ApproverID: "carol", PolicyIndex: 0, Status: model.DecisionPending},
		{ApproverID: "bob", PolicyIndex: 1, Status: model.DecisionPending},
	}

	assert.True(t, applyDecision(s, model.ApprovalSignal{ApproverID: "bob", Approved: true, Comments: "lgtm"}, now))
	assert.Equal(t, model.DecisionApproved, s[0].Status)
	assert.Equal(t, model.DecisionApproved, s[2].Status)
	assert.Equal(t, "lgtm", s[2].Comments)
	assert.Equal(t, now, *s[0].DecidedAt)
	assert.Equal(t, model.DecisionPending, s[1].Status)

	// A second decision from the same approver has no pending slot left.
	assert.False(t, applyDecision(s, model.ApprovalSignal{ApproverID: "bob", Approved: false}, now))
	assert.Equal(t, model.DecisionApproved, s[0].Status)

	assert.False(t, applyDecision(s, model.ApprovalSignal{ApproverID: "mallory", Approved: true}, now))
}

func TestApprovalTimeout(t *testing.T) {
	assert.Zero(t, approvalTimeout(nil))
	assert.Zero(t, approvalTimeout([]model.ApprovalPolicy{{TimeoutMinutes: 0}}))
	assert.Equal(t, 15*time.Minute, approvalTimeout([]model.ApprovalPolicy{
		{TimeoutMinutes: 0}, {TimeoutMinutes: 60}, {TimeoutMinutes: 15},
	}))
}
