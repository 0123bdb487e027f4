package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security or progress audit event
type AuditEvent struct {
	EventType     string
	StudentID     string
	Identifier    string // login identifier, masked before it is written
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := al.baseAttrs("auth", event)
	attrs = append(attrs, slog.Bool("success", event.Success))

	if event.Identifier != "" {
		attrs = append(attrs, slog.String("identifier", SanitizedEmail(event.Identifier)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogMissionEvent logs mission creation and completion
func (al *AuditLogger) LogMissionEvent(event AuditEvent) {
	attrs := al.baseAttrs("mission", event)
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}
	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

func (al *AuditLogger) baseAttrs(auditType string, event AuditEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if event.StudentID != "" {
		attrs = append(attrs, slog.String("student_id", event.StudentID))
	}
	return attrs
}
