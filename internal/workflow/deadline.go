package workflow

import (
	"time"

	"go.temporal.io/sdk/workflow"
)

// deadline is a fixed point in workflow time that bounds a polling loop.
type deadline struct {
	at time.Time
}

func newDeadline(ctx workflow.Context, d time.Duration) deadline {
	return deadline{at: workflow.Now(ctx).Add(d)}
}

func (d deadline) remaining(ctx workflow.Context) time.Duration {
	r := d.at.Sub(workflow.Now(ctx))
	if r < 0 {
		return 0
	}
	return r
}

func (d deadline) expired(ctx workflow.Context) bool {
	return d.remaining(ctx) == 0
}

// sleep waits for interval, cut short at the deadline. It returns false once
// the deadline has passed or ctx is cancelled.
func (d deadline) sleep(ctx workflow.Context, interval time.Duration) bool {
	wait := d.remaining(ctx)
	if interval < wait {
		wait = interval
	}
	if wait <= 0 {
		return false
	}
	if err := workflow.Sleep(ctx, wait); err != nil {
		return false
	}
	return !d.expired(ctx)
}
