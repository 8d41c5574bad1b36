package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	return out
}

func TestLogger_StampsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	newLogger(&buf, "prod").With("component", "booking").InfoContext(ctx, "hello")

	line := decodeLine(t, &buf)
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id mismatch: %v", line)
	}
	if line["span_id"] != span.SpanContext().SpanID().String() {
		t.Fatalf("span_id mismatch: %v", line)
	}
	if line["component"] != "booking" {
		t.Fatalf("expected attrs preserved through With: %v", line)
	}
}

func TestLogger_NoSpanNoIDs(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Info("hello")

	line := decodeLine(t, &buf)
	if _, ok := line["trace_id"]; ok {
		t.Fatalf("unexpected trace_id without span: %v", line)
	}
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be dropped outside dev: %s", buf.String())
	}

	newLogger(&buf, "dev").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug should be logged in dev")
	}
}
