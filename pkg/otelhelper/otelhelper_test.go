package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_SetError(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "pipeline.step",
		attribute.String(StepIDKey, "load_triples"))
	SetError(span, errors.New("boom"), attribute.String(SessionIDKey, "s1"))
	span.End()

	ended := recorder.Ended()
	if assert.Len(t, ended, 1) {
		assert.Equal(t, "pipeline.step", ended[0].Name())
		assert.Equal(t, codes.Error, ended[0].Status().Code)
		assert.Equal(t, "boom", ended[0].Status().Description)
		assert.Contains(t, ended[0].Attributes(), attribute.String(StepIDKey, "load_triples"))
	}
}

func TestNoopTracer(t *testing.T) {
	t.Parallel()

	_, span := StartSpan(context.Background(), NoopTracer(), "noop")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}
