package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"

	"github.com/leadcore/go-crm-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("disabled setup should not error: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("shutdown must be callable even when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned error: %v", err)
	}
}

func TestSetupOTel_ExporterFailure(t *testing.T) {
	prev := newExporter
	t.Cleanup(func() { newExporter = prev })
	newExporter = func(_ context.Context, _ otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("dial failed")
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "svc",
		SampleRatio: 1,
	}, "test")
	if err == nil {
		t.Fatalf("expected exporter failure to propagate")
	}
}
