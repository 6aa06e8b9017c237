package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestPrometheusReader_ServesInstruments(t *testing.T) {
	reader, handler, err := PrometheusReader()
	require.NoError(t, err)

	shutdown, err := SetupMeterProvider(nil, reader)
	require.NoError(t, err)
	defer shutdown(context.Background())

	metrics, err := InitMetrics()
	require.NoError(t, err)
	RecordReport(context.Background(), metrics, "summary", false)
	RecordRequestMetric(context.Background(), metrics, http.MethodGet, "/api/tests", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "medlab_report_generated")
	assert.Contains(t, string(body), `report_kind="summary"`)
	assert.Contains(t, string(body), "http_server_request_count")
}

func TestRecorders_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, http.MethodGet, "/", http.StatusOK, time.Millisecond)
		RecordDBMetric(ctx, nil, "select", time.Millisecond)
		RecordCacheHit(ctx, nil, "report:x")
		RecordCacheMiss(ctx, nil, "report:x")
		RecordReport(ctx, nil, "tests", true)
	})
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = previous }()

	LoggerFromContext(ctx).Info().Msg("traced")
	assert.Contains(t, buf.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, buf.String(), `"span_id":"00f067aa0ba902b7"`)

	buf.Reset()
	LoggerFromContext(context.Background()).Info().Msg("untraced")
	assert.NotContains(t, buf.String(), "trace_id")

	buf.Reset()
	LoggerFromContext(WithRequestID(context.Background(), "req-1")).Info().Msg("request")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}

func TestNewLogger_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Service: "medlab-api", Level: zerolog.WarnLevel})

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"service":"medlab-api"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Console: true, Level: zerolog.InfoLevel})
	logger.Info().Msg("ready")

	assert.Contains(t, buf.String(), "ready")
	assert.NotContains(t, buf.String(), `"message"`)
}
