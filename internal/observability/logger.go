package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	ctxKeyCorrelationID ctxKey = "correlation_id"
)

// Init installs a JSON logger on stdout as the slog default.
func Init(level string) *slog.Logger {
	l := NewLogger(os.Stdout, level)
	slog.SetDefault(l)
	return l
}

func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID stores a correlation id in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyCorrelationID).(string)
	return id
}

// LoggerFromContext adds correlation_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	id := CorrelationID(ctx)
	if id == "" {
		return slog.Default()
	}
	return slog.Default().With("correlation_id", id)
}
