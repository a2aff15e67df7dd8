package baggage

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelbaggage "go.opentelemetry.io/otel/baggage"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanProcessor copies the ambient OTel baggage onto every span it sees
// as attributes, so a bundle captured once at auth time rides along on
// every child span without being threaded through call signatures.
type SpanProcessor struct{}

var _ sdktrace.SpanProcessor = SpanProcessor{}

func (SpanProcessor) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {
	bg := otelbaggage.FromContext(ctx)
	for _, m := range bg.Members() {
		s.SetAttributes(attribute.String("baggage."+m.Key(), m.Value()))
	}
}

func (SpanProcessor) OnEnd(sdktrace.ReadOnlySpan) {}

func (SpanProcessor) Shutdown(context.Context) error { return nil }

func (SpanProcessor) ForceFlush(context.Context) error { return nil }
