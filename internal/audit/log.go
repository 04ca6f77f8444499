package audit

import (
	"context"
	"strings"
	"time"

	"paperdesk.org/internal/auth"
	"paperdesk.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEntry mirrors a committed ledger entry to the shared JSON logger. The
// durable record is the database row; this line exists for operators tailing
// logs and must never be the only copy.
func LogEntry(ctx context.Context, entry Entry) {
	line := map[string]any{
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		"type":   "audit",
		"action": string(entry.Action),
		"actor":  entry.ActorID,
	}
	if entry.DocumentID != "" {
		line["document_id"] = entry.DocumentID
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		line["request_id"] = rid
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		line["user_id"] = userID
	}
	if len(entry.Details) > 0 {
		fields := make(map[string]any, len(entry.Details))
		for k, v := range entry.Details {
			fields[k] = v
		}
		line["fields"] = fields
	}
	obs.LogEntry(line)
}
