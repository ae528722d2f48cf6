package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/signalsfoundry/constellation-router/internal/logging"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracingDisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitTracing(ctx, TracingConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}

	_, span := StartSpan(ctx, "route")
	if span.SpanContext().IsValid() {
		t.Fatalf("expected non-recording span when tracing is disabled")
	}
	EndSpan(span, nil)
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported tracing exporter") {
		t.Fatalf("expected unsupported exporter error, got %v", err)
	}
}

func TestStdoutExporterRecordsQuerySpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := InitTracing(ctx, TracingConfig{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRatio: 1,
		Writer:      &buf,
	}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	qctx := logging.ContextWithQueryID(ctx, "q-123")
	_, span := StartSpan(qctx, "route.query", attribute.Int("hops", 4))
	if !span.SpanContext().IsValid() {
		t.Fatalf("expected a valid span context")
	}
	EndSpan(span, errors.New("no route"))

	ShutdownWithTimeout(ctx, shutdown, nil)

	out := buf.String()
	for _, want := range []string{"route.query", "q-123", "no route"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in exported spans:\n%s", want, out)
		}
	}
}
