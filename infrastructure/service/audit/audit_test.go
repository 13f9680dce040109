package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

type MockAuditLog struct {
	mock.Mock
}

func (m *MockAuditLog) LogWriteOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	return m.Called(ctx, actor, operationName, resourceID, details).Error(0)
}

func (m *MockAuditLog) LogFailedOperation(ctx context.Context, actor, operationName, resourceID, errorMessage string, details map[string]interface{}) error {
	return m.Called(ctx, actor, operationName, resourceID, errorMessage, details).Error(0)
}

func (m *MockAuditLog) LogReadOperation(ctx context.Context, actor, operationName, resourceID string, details map[string]interface{}) error {
	return m.Called(ctx, actor, operationName, resourceID, details).Error(0)
}

func TestLoggerAuditLog(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	sink := NewLoggerAuditLog(log)
	ctx := logger.ContextWithCorrelationID(context.Background(), "cid-9")
	require.NoError(t, sink.LogFailedOperation(ctx, "agent-1", "update_budget", "123", "boom", map[string]interface{}{"stage": "execute"}))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "FAILED", line["audit_kind"])
	assert.Equal(t, "update_budget", line["operation"])
	assert.Equal(t, "boom", line["error_message"])
	assert.Equal(t, "cid-9", line["correlation_id"])
}

func TestMultiAuditLog_CallsEverySink(t *testing.T) {
	first := new(MockAuditLog)
	second := new(MockAuditLog)
	dbErr := domainerr.NewAuditError("insert", errors.New("db down"))

	first.On("LogWriteOperation", mock.Anything, "agent-1", "apply_labels", "123", mock.Anything).Return(dbErr).Once()
	second.On("LogWriteOperation", mock.Anything, "agent-1", "apply_labels", "123", mock.Anything).Return(nil).Once()

	multi := NewMultiAuditLog(first, nil, second)
	err := multi.LogWriteOperation(context.Background(), "agent-1", "apply_labels", "123", nil)

	assert.Same(t, dbErr, err)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestMultiAuditLog_Empty(t *testing.T) {
	assert.NoError(t, NewMultiAuditLog().LogReadOperation(context.Background(), "a", "list", "", nil))
}

func TestMetricsAuditLog(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewMetricsAuditLog(reg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.LogWriteOperation(ctx, "a", "update_budget", "1", nil))
	require.NoError(t, sink.LogWriteOperation(ctx, "a", "update_budget", "1", nil))
	require.NoError(t, sink.LogFailedOperation(ctx, "a", "update_budget", "1", "expired",
		map[string]interface{}{"error_code": domainerr.ErrCodeTokenExpired}))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.operations.WithLabelValues("WRITE", "update_budget", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.operations.WithLabelValues("FAILED", "update_budget", "CONFIRM_2002")))

	_, err = NewMetricsAuditLog(reg)
	assert.Error(t, err, "collectors register once per registry")
}
