package entity

import "time"

// AuditKind classifies an audit entry
type AuditKind string

const (
	AuditKindRead   AuditKind = "READ"
	AuditKindWrite  AuditKind = "WRITE"
	AuditKindFailed AuditKind = "FAILED"
)

// AuditEntry represents a durable record of an attempted or completed operation
type AuditEntry struct {
	ID            string                 `json:"id"`
	Kind          AuditKind              `json:"kind"`
	Actor         string                 `json:"actor"`
	OperationName string                 `json:"operation_name"`
	ResourceID    string                 `json:"resource_id"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}
