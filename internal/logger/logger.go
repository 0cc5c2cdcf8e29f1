package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	replicalog "github.com/gxo-labs/replica/pkg/replica/v1/log"
	"go.opentelemetry.io/otel/trace"
)

const defaultLevel = slog.LevelInfo

// levelOff is above every level slog emits, so nothing passes it.
const levelOff = slog.Level(1 << 10)

// parseLogLevel converts a case-insensitive level name to a slog.Level.
// Unknown names fall back to INFO.
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "OFF", "NONE":
		return levelOff
	default:
		return defaultLevel
	}
}

// defaultLogger implements replicalog.Logger on top of log/slog.
type defaultLogger struct {
	*slog.Logger
}

var _ replicalog.Logger = (*defaultLogger)(nil)

// NewLogger returns a Logger writing "text" or "json" records at levelStr
// and above to writer (os.Stderr when nil). Records carry trace_id and
// span_id when logged with a context holding a valid span.
func NewLogger(levelStr string, formatStr string, writer io.Writer) replicalog.Logger {
	if writer == nil {
		writer = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       parseLogLevel(levelStr),
		ReplaceAttr: replaceLevelAttribute,
	}

	var base slog.Handler
	if strings.EqualFold(formatStr, "json") {
		base = slog.NewJSONHandler(writer, opts)
	} else {
		base = slog.NewTextHandler(writer, opts)
	}
	return &defaultLogger{Logger: slog.New(NewOtelHandler(base))}
}

// NewDefaultLogger returns a text logger on os.Stderr.
func NewDefaultLogger(levelStr string) replicalog.Logger {
	return NewLogger(levelStr, "text", os.Stderr)
}

// NewDiscardLogger returns a logger that drops everything. It is what the
// library uses until a host supplies its own.
func NewDiscardLogger() replicalog.Logger {
	return NewLogger("OFF", "text", io.Discard)
}

var levelStringMap = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

// replaceLevelAttribute renders the level attribute as a bare uppercase name.
func replaceLevelAttribute(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	name, exists := levelStringMap[level]
	if !exists {
		name = level.String()
	}
	a.Value = slog.StringValue(name)
	return a
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	l.logf(slog.LevelDebug, format, args...)
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.logf(slog.LevelInfo, format, args...)
}

func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	l.logf(slog.LevelWarn, format, args...)
}

// Errorf logs at ERROR. When the last argument is an error it is also
// attached as attributes; clone failures get their type and path split out.
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	ctx := context.Background()
	if !l.Logger.Enabled(ctx, slog.LevelError) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if len(args) == 0 {
		l.Logger.Log(ctx, slog.LevelError, msg)
		return
	}
	err, ok := args[len(args)-1].(error)
	if !ok {
		l.Logger.Log(ctx, slog.LevelError, msg)
		return
	}
	l.Logger.Log(ctx, slog.LevelError, msg, errorAttrs(err)...)
}

// errorAttrs returns the structured attributes describing err.
func errorAttrs(err error) []any {
	var ce *replicaerrors.CloneError
	if errors.As(err, &ce) {
		attrs := []any{slog.String("error_type", "CloneError")}
		if ce.TypeName != "" {
			attrs = append(attrs, slog.String("type_name", ce.TypeName))
		}
		if ce.FieldPath != "" {
			attrs = append(attrs, slog.String("field_path", ce.FieldPath))
		}
		if ce.Cause != nil {
			return append(attrs, slog.String("error", ce.Cause.Error()))
		}
		return append(attrs, slog.String("error", ce.Error()))
	}
	return []any{slog.String("error", err.Error())}
}

func (l *defaultLogger) logf(level slog.Level, format string, args ...interface{}) {
	ctx := context.Background()
	if l.Logger.Enabled(ctx, level) {
		l.Logger.Log(ctx, level, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Log(level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(context.Background(), level, msg, args...)
}

// LogCtx logs with ctx so the OtelHandler can add trace correlation.
func (l *defaultLogger) LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(ctx, level, msg, args...)
}

func (l *defaultLogger) With(args ...interface{}) replicalog.Logger {
	return &defaultLogger{Logger: l.Logger.With(args...)}
}

func (l *defaultLogger) IsEnabled(level slog.Level) bool {
	return l.Logger.Enabled(context.Background(), level)
}

// --- OtelHandler ---

// OtelHandler is slog middleware that adds trace_id and span_id attributes
// to records logged with a context carrying a valid span.
type OtelHandler struct {
	next slog.Handler
}

func NewOtelHandler(next slog.Handler) *OtelHandler {
	return &OtelHandler{next: next}
}

func (h *OtelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *OtelHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, record)
}

func (h *OtelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewOtelHandler(h.next.WithAttrs(attrs))
}

func (h *OtelHandler) WithGroup(name string) slog.Handler {
	return NewOtelHandler(h.next.WithGroup(name))
}
