package outbound

import "context"

// AuditLog is the durable record of read, write and failed operations
type AuditLog interface {
	LogWriteOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error
	LogFailedOperation(ctx context.Context, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) error
	LogReadOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error
}
