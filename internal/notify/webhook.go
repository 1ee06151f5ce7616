package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edvin/rollout/internal/model"
)

// StatusError is returned when a webhook endpoint answers with a non-2xx
// status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d", e.StatusCode)
}

// WebhookSender POSTs the event as generic JSON.
type WebhookSender struct {
	client *http.Client
}

func NewWebhookSender(client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookSender{client: client}
}

// WebhookPayload is the JSON body sent to generic webhooks.
type WebhookPayload struct {
	Event      string                  `json:"event"`
	Deployment model.NotificationEvent `json:"deployment"`
}

func (s *WebhookSender) Send(ctx context.Context, target string, ev model.NotificationEvent) error {
	body, err := json.Marshal(WebhookPayload{Event: "deployment." + ev.Event, Deployment: ev})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	return post(ctx, s.client, target, body)
}

// SlackSender posts a Block Kit message to a Slack incoming webhook.
type SlackSender struct {
	client *http.Client
}

func NewSlackSender(client *http.Client) *SlackSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SlackSender{client: client}
}

func (s *SlackSender) Send(ctx context.Context, target string, ev model.NotificationEvent) error {
	body, err := buildSlackPayload(ev)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	return post(ctx, s.client, target, body)
}

var slackEmoji = map[string]string{
	model.EventStarted:    ":rocket:",
	model.EventApproved:   ":white_check_mark:",
	model.EventRejected:   ":no_entry:",
	model.EventCompleted:  ":tada:",
	model.EventFailed:     ":x:",
	model.EventRolledBack: ":rewind:",
}

func buildSlackPayload(ev model.NotificationEvent) ([]byte, error) {
	emoji, ok := slackEmoji[ev.Event]
	if !ok {
		emoji = ":information_source:"
	}

	fields := []map[string]string{
		{"type": "mrkdwn", "text": fmt.Sprintf("*Environment:* %s", ev.Environment)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Version:* %s", ev.Version)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Status:* %s", ev.Status)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Deployment:* %s", ev.DeploymentID)},
	}
	if ev.ApproverID != "" {
		fields = append(fields, map[string]string{"type": "mrkdwn", "text": fmt.Sprintf("*Approver:* %s", ev.ApproverID)})
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]string{
				"type": "plain_text",
				"text": fmt.Sprintf("Deployment %s", ev.Event),
			},
		},
		{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": fmt.Sprintf("%s *%s*", emoji, ev.ConfigName),
			},
		},
		{
			"type":   "section",
			"fields": fields,
		},
	}
	if ev.Message != "" {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": fmt.Sprintf("```%s```", ev.Message),
			},
		})
	}

	return json.Marshal(map[string]any{"blocks": blocks})
}

func post(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST to %s: %w", url, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode}
}
