// Package notify delivers deployment lifecycle events to webhook, Slack and
// Kafka targets.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/rollout/internal/metrics"
	"github.com/edvin/rollout/internal/model"
)

// Sender delivers one event to one target on a channel.
type Sender interface {
	Send(ctx context.Context, target string, ev model.NotificationEvent) error
}

// Dispatcher routes events to the senders named by notification rules.
type Dispatcher struct {
	senders map[string]Sender
	logger  zerolog.Logger
}

func NewDispatcher(logger zerolog.Logger, senders map[string]Sender) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Dispatch sends ev to every rule subscribed to ev.Event, in parallel. It
// returns the number of deliveries attempted and the joined delivery errors.
func (d *Dispatcher) Dispatch(ctx context.Context, rules []model.NotificationRule, ev model.NotificationEvent) (int, error) {
	var (
		mu   sync.Mutex
		errs []error
		sent int
	)

	var g errgroup.Group
	for _, rule := range rules {
		if !rule.Matches(ev.Event) {
			continue
		}
		sent++
		g.Go(func() error {
			err := d.send(ctx, rule, ev)
			metrics.NotificationsTotal.WithLabelValues(rule.Channel, metrics.ResultLabel(err == nil)).Inc()
			if err != nil {
				d.logger.Warn().Err(err).
					Str("deployment_id", ev.DeploymentID).
					Str("channel", rule.Channel).
					Str("event", ev.Event).
					Msg("notification delivery failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s %s: %w", rule.Channel, rule.Target, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return sent, errors.Join(errs...)
}

func (d *Dispatcher) send(ctx context.Context, rule model.NotificationRule, ev model.NotificationEvent) error {
	s, ok := d.senders[rule.Channel]
	if !ok {
		return fmt.Errorf("channel %q is not configured", rule.Channel)
	}
	return s.Send(ctx, rule.Target, ev)
}
