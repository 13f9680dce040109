package audit

import (
	"context"

	"github.com/adsops/adsops/application/port/outbound"
)

// MultiAuditLog fans every entry out to all sinks. Every sink is called even
// when an earlier one fails; the first error is returned.
type MultiAuditLog struct {
	sinks []outbound.AuditLog
}

var _ outbound.AuditLog = (*MultiAuditLog)(nil)

func NewMultiAuditLog(sinks ...outbound.AuditLog) *MultiAuditLog {
	kept := make([]outbound.AuditLog, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiAuditLog{sinks: kept}
}

func (m *MultiAuditLog) LogWriteOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	return m.each(func(s outbound.AuditLog) error {
		return s.LogWriteOperation(ctx, actor, operationName, resourceID, details)
	})
}

func (m *MultiAuditLog) LogFailedOperation(ctx context.Context, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) error {
	return m.each(func(s outbound.AuditLog) error {
		return s.LogFailedOperation(ctx, actor, operationName, resourceID, errorMessage, details)
	})
}

func (m *MultiAuditLog) LogReadOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	return m.each(func(s outbound.AuditLog) error {
		return s.LogReadOperation(ctx, actor, operationName, resourceID, details)
	})
}

func (m *MultiAuditLog) each(call func(outbound.AuditLog) error) error {
	var first error
	for _, s := range m.sinks {
		if err := call(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
