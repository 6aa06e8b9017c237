package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOptions controls how NewLogger formats its output.
type LoggerOptions struct {
	Service string
	// Console selects the human readable writer instead of JSON lines.
	Console bool
	Level   zerolog.Level
}

// NewLogger builds a logger writing to w.
func NewLogger(w io.Writer, opts LoggerOptions) zerolog.Logger {
	var logger zerolog.Logger
	if opts.Console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(w).With().Timestamp().Caller().Logger()
	}
	if opts.Service != "" {
		logger = logger.With().Str("service", opts.Service).Logger()
	}
	return logger.Level(opts.Level)
}

// InitLogger installs the server's global logger on stdout. Development
// environments get console output.
func InitLogger(serviceName, env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = NewLogger(os.Stdout, LoggerOptions{
		Service: serviceName,
		Console: env == "development",
		Level:   zerolog.DebugLevel,
	})
}

type requestIDKey struct{}

// WithRequestID stores the request id loggers derived from ctx carry
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerFromContext returns the global logger tagged with the request id and
// the active span of ctx.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	fields := log.With()
	if id := RequestIDFromContext(ctx); id != "" {
		fields = fields.Str("request_id", id)
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = fields.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
	logger := fields.Logger()
	return &logger
}
