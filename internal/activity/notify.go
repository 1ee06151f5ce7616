package activity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/rollout/internal/model"
)

// Dispatcher fans an event out to notification rules. *notify.Dispatcher
// satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, rules []model.NotificationRule, ev model.NotificationEvent) (int, error)
}

// Notifier contains the notification activity.
type Notifier struct {
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewNotifier(dispatcher Dispatcher, logger zerolog.Logger) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "notifier-activity").Logger(),
	}
}

// DispatchParams holds the parameters for DispatchNotification.
type DispatchParams struct {
	Rules []model.NotificationRule `json:"rules"`
	Event model.NotificationEvent  `json:"event"`
}

// DispatchNotification delivers the event and returns how many deliveries
// were attempted. Delivery failures are logged and never returned.
func (a *Notifier) DispatchNotification(ctx context.Context, params DispatchParams) (int, error) {
	sent, err := a.dispatcher.Dispatch(ctx, params.Rules, params.Event)
	if err != nil {
		a.logger.Warn().Err(err).
			Str("deployment_id", params.Event.DeploymentID).
			Str("event", params.Event.Event).
			Msg("some notifications were not delivered")
	}
	return sent, nil
}
