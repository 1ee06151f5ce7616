package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollout_transitions_total",
		Help: "Deployment status transitions by target status.",
	}, []string{"status"})

	ChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollout_checks_total",
		Help: "Completed checks by type, phase and result.",
	}, []string{"type", "phase", "result"})

	CheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rollout_check_duration_seconds",
		Help:    "Time spent running a check.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"type"})

	RollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollout_rollbacks_total",
		Help: "Rollbacks performed, by whether the revert succeeded.",
	}, []string{"success"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollout_notifications_total",
		Help: "Notification deliveries by channel and result.",
	}, []string{"channel", "result"})
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ResultLabel maps an outcome to a result label.
func ResultLabel(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
