package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ResilientPublisher is the single place that talks to the broker on the
// producer side: bounded publish timeout, a circuit breaker so a dead broker
// degrades to fast failures, and fallback logging of everything that could
// not be delivered.
type ResilientPublisher struct {
	pub     message.Publisher
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewResilientPublisher(pub message.Publisher, timeout time.Duration) *ResilientPublisher {
	if pub == nil {
		panic("publisher is nil")
	}
	return &ResilientPublisher{
		pub: pub,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "broker-publish",
			Timeout: timeout,
		}),
		timeout: timeout,
	}
}

func (p *ResilientPublisher) Publish(ctx context.Context, topic, partitionKey string, payload []byte, metadata map[string]string) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		for k, v := range metadata {
			msg.Metadata.Set(k, v)
		}
		msg.Metadata.Set("partition_key", partitionKey)

		done := make(chan error, 1)
		go func() {
			done <- p.pub.Publish(topic, msg)
		}()

		select {
		case err := <-done:
			return nil, err
		case <-time.After(p.timeout):
			return nil, fmt.Errorf("publish to %s timed out after %s", topic, p.timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		log.FromContext(ctx).WithFields(logrus.Fields{
			"topic":         topic,
			"partition_key": partitionKey,
		}).Errorf("publish failed: %v", err)
	}

	return err
}
