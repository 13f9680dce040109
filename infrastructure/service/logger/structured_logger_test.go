package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestStructuredLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "debug", Format: "json", ServiceName: "adsops", Output: &buf})

	ctx := ContextWithCorrelationID(context.Background(), "cid-1")
	log.WithFields(map[string]interface{}{"component": "enforcer"}).
		Error(ctx, "consume failed", errors.New("boom"), map[string]interface{}{"operation": "update_budget"})

	line := decodeLine(t, &buf)
	assert.Equal(t, "consume failed", line["msg"])
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "adsops", line["service"])
	assert.Equal(t, "enforcer", line["component"])
	assert.Equal(t, "update_budget", line["operation"])
	assert.Equal(t, "cid-1", line["correlation_id"])
	assert.Equal(t, "boom", line["error"])
	assert.NotEmpty(t, line["caller"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "warn", Format: "json", Output: &buf})

	log.Info(context.Background(), "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown", nil)
	assert.NotZero(t, buf.Len())
}

func TestLogApprovalEvent(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "info", Format: "json", Output: &buf})

	LogApprovalEvent(context.Background(), log, "token_consumed", "agent-7", "update_budget", false, nil)

	line := decodeLine(t, &buf)
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "approval", line["event_type"])
	assert.Equal(t, "agent-7", line["actor"])
	assert.Equal(t, false, line["success"])
}

func TestCorrelationIDFromContext(t *testing.T) {
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
	assert.Equal(t, "x", CorrelationIDFromContext(ContextWithCorrelationID(context.Background(), "x")))
}
