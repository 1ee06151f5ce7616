package request

import (
	"fmt"
	"net/http"

	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/store"
)

var knownStatuses = map[string]bool{
	model.StatusPendingApproval: true,
	model.StatusApproved:        true,
	model.StatusRejected:        true,
	model.StatusDeploying:       true,
	model.StatusTesting:         true,
	model.StatusCompleted:       true,
	model.StatusFailed:          true,
	model.StatusRollingBack:     true,
	model.StatusRolledBack:      true,
}

// ParseDeploymentFilter reads the status, environment and config query
// parameters of a deployment listing.
func ParseDeploymentFilter(r *http.Request) (store.DeploymentFilter, error) {
	q := r.URL.Query()
	f := store.DeploymentFilter{
		Status:      q.Get("status"),
		Environment: q.Get("environment"),
		ConfigName:  q.Get("config"),
	}
	if f.Status != "" && !knownStatuses[f.Status] {
		return f, fmt.Errorf("unknown status %q", f.Status)
	}
	return f, nil
}
