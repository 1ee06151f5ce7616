package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// OperatorHeader names the operator on whose behalf a request is made.
const OperatorHeader = "X-Operator"

// Execer is the part of *pgxpool.Pool the audit writer needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AuditLogger is an async audit log writer.
type AuditLogger struct {
	db     Execer
	logger zerolog.Logger
	ch     chan auditEntry
	done   chan struct{}
}

type auditEntry struct {
	Operator     string
	Action       string
	ResourceType string
	ResourceID   *string
	StatusCode   int
	RequestBody  json.RawMessage
}

func NewAuditLogger(db Execer, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		db:     db,
		logger: logger,
		ch:     make(chan auditEntry, 1024),
		done:   make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	defer close(al.done)
	for entry := range al.ch {
		_, err := al.db.Exec(
			context.Background(),
			`INSERT INTO audit_logs (id, operator, action, resource_type, resource_id, request_body, status_code, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
			uuid.New().String(), entry.Operator, entry.Action, entry.ResourceType, entry.ResourceID, entry.RequestBody, entry.StatusCode,
		)
		if err != nil {
			al.logger.Error().Err(err).Str("action", entry.Action).Msg("failed to write audit log")
		}
	}
}

// Close stops accepting entries and waits for the buffered ones to be written.
func (al *AuditLogger) Close() {
	close(al.ch)
	<-al.done
}

// Middleware records every mutating API request in audit_logs.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		resourceType, resourceID, action := extractResource(r.Method, r.URL.Path)

		var body json.RawMessage
		if len(bodyBytes) > 0 && json.Valid(bodyBytes) {
			body = sanitizeBody(bodyBytes)
		}

		select {
		case al.ch <- auditEntry{
			Operator:     r.Header.Get(OperatorHeader),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			StatusCode:   sw.status,
			RequestBody:  body,
		}:
		default:
			al.logger.Warn().Str("action", action).Msg("audit log buffer full, dropping entry")
		}
	})
}

// extractResource splits an API path into the top-level resource, its id and
// the action taken on it:
//
//	POST /api/v1/deployments                   -> deployments, -, create
//	POST /api/v1/deployments/abc/approvals     -> deployments, abc, approvals
//	DELETE /api/v1/configs/abc                 -> configs, abc, delete
func extractResource(method, path string) (string, *string, string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")

	resourceType := parts[0]
	var resourceID *string
	if len(parts) > 1 && parts[1] != "" {
		id := parts[1]
		resourceID = &id
	}

	action := strings.ToLower(method)
	switch {
	case len(parts) > 2:
		action = strings.Join(parts[2:], "/")
	case method == http.MethodPost:
		action = "create"
	case method == http.MethodPut:
		action = "update"
	}
	return resourceType, resourceID, action
}

var sensitiveFields = map[string]bool{
	"password": true, "token": true, "secret": true, "api_key": true,
	"authorization": true, "signing_secret": true,
}

// sanitizeBody redacts sensitive keys at any depth, including notification
// targets that embed credentials in their URL query.
func sanitizeBody(body []byte) json.RawMessage {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	sanitized, _ := json.Marshal(redact(data))
	return sanitized
}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if sensitiveFields[strings.ToLower(k)] {
				t[k] = "[REDACTED]"
				continue
			}
			if k == "target" {
				if s, ok := val.(string); ok && strings.Contains(s, "?") {
					t[k] = s[:strings.Index(s, "?")] + "?[REDACTED]"
					continue
				}
			}
			t[k] = redact(val)
		}
	case []any:
		for i := range t {
			t[i] = redact(t[i])
		}
	}
	return v
}
