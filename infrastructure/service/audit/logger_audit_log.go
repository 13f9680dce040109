// Package audit holds the non-database audit sinks and the fan-out that
// combines them.
package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/entity"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

// LoggerAuditLog writes audit entries as structured log lines
type LoggerAuditLog struct {
	logger *logrus.Logger
}

var _ outbound.AuditLog = (*LoggerAuditLog)(nil)

func NewLoggerAuditLog(log *logrus.Logger) *LoggerAuditLog {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LoggerAuditLog{logger: log}
}

func (l *LoggerAuditLog) LogWriteOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	l.entry(ctx, entity.AuditKindWrite, actor, operationName, resourceID, details).Info("Write operation executed")
	return nil
}

func (l *LoggerAuditLog) LogFailedOperation(ctx context.Context, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) error {
	l.entry(ctx, entity.AuditKindFailed, actor, operationName, resourceID, details).
		WithField("error_message", errorMessage).
		Warn("Operation failed")
	return nil
}

func (l *LoggerAuditLog) LogReadOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	l.entry(ctx, entity.AuditKindRead, actor, operationName, resourceID, details).Info("Read operation")
	return nil
}

func (l *LoggerAuditLog) entry(ctx context.Context, kind entity.AuditKind, actor, operationName, resourceID string, details map[string]interface{}) *logrus.Entry {
	fields := logrus.Fields{
		"event_type":  "audit",
		"audit_kind":  kind,
		"actor":       actor,
		"operation":   operationName,
		"resource_id": resourceID,
	}
	if len(details) > 0 {
		fields["details"] = details
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		fields["correlation_id"] = cid
	}
	return l.logger.WithContext(ctx).WithFields(fields)
}
