package model

import "time"

// Lifecycle events delivered to notification rules.
const (
	EventStarted    = "started"
	EventApproved   = "approved"
	EventRejected   = "rejected"
	EventCompleted  = "completed"
	EventFailed     = "failed"
	EventRolledBack = "rolled_back"
)

// NotificationEvent is the record pushed to the notification dispatcher for
// every lifecycle event.
type NotificationEvent struct {
	DeploymentID string    `json:"deployment_id"`
	Event        string    `json:"event"`
	Environment  string    `json:"environment"`
	Timestamp    time.Time `json:"timestamp"`
	ConfigName   string    `json:"config_name"`
	Version      string    `json:"version"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
	ApproverID   string    `json:"approver_id,omitempty"`
}
