package audit

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/entity"
)

// MetricsAuditLog counts audit entries by kind, operation and error code
type MetricsAuditLog struct {
	operations *prometheus.CounterVec
}

var _ outbound.AuditLog = (*MetricsAuditLog)(nil)

// NewMetricsAuditLog registers its collectors on reg
func NewMetricsAuditLog(reg prometheus.Registerer) (*MetricsAuditLog, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adsops",
		Subsystem: "audit",
		Name:      "operations_total",
		Help:      "Audited operations by kind, operation name and error code",
	}, []string{"kind", "operation", "error_code"})

	if err := reg.Register(operations); err != nil {
		return nil, fmt.Errorf("failed to register audit metrics: %w", err)
	}
	return &MetricsAuditLog{operations: operations}, nil
}

func (m *MetricsAuditLog) LogWriteOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	m.operations.WithLabelValues(string(entity.AuditKindWrite), operationName, "").Inc()
	return nil
}

func (m *MetricsAuditLog) LogFailedOperation(ctx context.Context, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) error {
	code := ""
	if details != nil {
		if v, ok := details["error_code"]; ok {
			code = fmt.Sprint(v)
		}
	}
	m.operations.WithLabelValues(string(entity.AuditKindFailed), operationName, code).Inc()
	return nil
}

func (m *MetricsAuditLog) LogReadOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	m.operations.WithLabelValues(string(entity.AuditKindRead), operationName, "").Inc()
	return nil
}
