package workflow

import (
	"fmt"

	"go.temporal.io/sdk/workflow"
)

// CleanupAuditLogsCronID is the schedule id of the audit log retention job.
const CleanupAuditLogsCronID = "cleanup-audit-logs"

// CleanupAuditLogsWorkflow deletes audit log rows older than retentionDays.
// It runs daily from a Temporal schedule.
func CleanupAuditLogsWorkflow(ctx workflow.Context, retentionDays int) error {
	var deleted int64
	err := workflow.ExecuteActivity(withStoreOptions(ctx), "CleanupAuditLogs", retentionDays).Get(ctx, &deleted)
	if err != nil {
		return fmt.Errorf("cleanup audit logs: %w", err)
	}
	workflow.GetLogger(ctx).Info("audit logs cleaned up", "deleted", deleted, "retention_days", retentionDays)
	return nil
}
