package models

// Audit event types
const (
	AuditEventStudentRegistered = "student_registered"
	AuditEventLoginSuccess      = "login_success"
	AuditEventLoginFailed       = "login_failed"
	AuditEventLoginBlocked      = "login_blocked"
	AuditEventMissionCompleted  = "mission_completed"
	AuditEventMissionCreated    = "mission_created"
)

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]string
