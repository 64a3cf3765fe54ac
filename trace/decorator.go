package observability

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingPublisherDecorator opens a producer span per published message and
// records the destination topic.
type TracingPublisherDecorator struct {
	message.Publisher
}

func (d TracingPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		ctx, span := otel.Tracer("publisher").Start(
			msg.Context(),
			"publish "+topic,
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(attribute.String("messaging.destination", topic)),
		)
		msg.SetContext(ctx)
		span.End()
	}

	return d.Publisher.Publish(topic, messages...)
}
