package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/gxo-labs/replica/internal/logger"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("warn", "json", &buf)

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "warn 3", recs[0]["msg"])
	assert.Equal(t, "ERROR", recs[1]["level"])

	assert.False(t, log.IsEnabled(slog.LevelInfo))
	assert.True(t, log.IsEnabled(slog.LevelError))
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("chatty", "json", &buf)
	log.Debugf("hidden")
	log.Infof("shown")
	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
}

func TestLogger_ErrorAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("info", "json", &buf)

	cloneErr := replicaerrors.NewCloneError("*app.Order", "Items[2]", errors.New("boom"))
	log.Errorf("clone failed: %v", cloneErr)
	log.Errorf("plain failure: %v", errors.New("disk full"))

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "CloneError", recs[0]["error_type"])
	assert.Equal(t, "*app.Order", recs[0]["type_name"])
	assert.Equal(t, "Items[2]", recs[0]["field_path"])
	assert.Equal(t, "boom", recs[0]["error"])
	assert.Equal(t, "disk full", recs[1]["error"])
}

func TestLogger_WithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("info", "json", &buf).With("component", "test")
	log.Infof("hello")
	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "test", recs[0]["component"])
}

func TestLogger_TraceCorrelation(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("info", "json", &buf)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	log.LogCtx(ctx, slog.LevelInfo, "inside span")
	log.LogCtx(context.Background(), slog.LevelInfo, "outside span")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, sc.TraceID().String(), recs[0]["trace_id"])
	assert.Equal(t, sc.SpanID().String(), recs[0]["span_id"])
	assert.NotContains(t, recs[1], "trace_id")
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("debug", "text", &buf)
	log.Debugf("plain text")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), `msg="plain text"`)
}

func TestNewDiscardLogger(t *testing.T) {
	log := logger.NewDiscardLogger()
	assert.False(t, log.IsEnabled(slog.LevelError))
	log.Errorf("dropped: %v", errors.New("x"))
}
