package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestHandler_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "bankvault", "debug", nil, []string{"account_number"}))

	logger.Info("created",
		"account_number", "123456789",
		"payload", `{"pin":"1234","bank_name":"Acme"}`,
		"bank_name", "Acme",
	)

	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["account_number"])
	assert.Equal(t, "Acme", line["bank_name"])
	assert.JSONEq(t, `{"pin":"***","bank_name":"Acme"}`, line["payload"].(string))
	assert.Equal(t, "bankvault", line["service"])
}

func TestHandler_DefaultMaskFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "svc", "info", nil, nil))

	logger.Info("disclosure", "dev_code", "123456", "credential_secret", "hunter22")

	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["dev_code"])
	assert.Equal(t, "***", line["credential_secret"])
}

func TestHandler_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "svc", "info", nil, nil)).With("module", "vault")

	ctx := SetCorrelationID(context.Background(), "req-42")
	logger.InfoContext(ctx, "hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-42", line["_cID"])
	assert.Equal(t, "vault", line["module"])
}

func TestHandler_MasksScopedAttrsAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "svc", "info", nil, nil)).With("token", "eyJ")

	logger.Info("req", "body", []byte(`[{"password":"p","user":"u"}]`), "headers", map[string]string{"Authorization": "Bearer x"})

	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["token"])
	assert.JSONEq(t, `[{"password":"***","user":"u"}]`, line["body"].(string))
	assert.Equal(t, map[string]any{"Authorization": "***"}, line["headers"])
}

func TestHandler_TraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "svc", "info", nil, nil))
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})

	logger.InfoContext(trace.ContextWithSpanContext(context.Background(), sc), "traced")

	line := decodeLine(t, &buf)
	assert.Equal(t, sc.TraceID().String(), line["trace_id"])
	assert.Equal(t, sc.SpanID().String(), line["span_id"])
}

func TestHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "svc", "warn", nil, nil))

	logger.Info("dropped")

	assert.Zero(t, buf.Len())
}

func TestSanitizeCorrelationID(t *testing.T) {
	tests := map[string]string{
		"abc-123_x.y":             "abc-123_x.y",
		"  padded  ":              "padded",
		"has space":               "",
		"semi;colon":              "",
		"":                        "",
		string(make([]byte, 200)): "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeCorrelationID(in), "input %q", in)
	}
}
