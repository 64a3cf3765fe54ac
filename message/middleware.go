package message

import (
	"bookings/config"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

func useMiddlewares(router *message.Router, deadLetterPub message.Publisher, cfg config.Config, watermillLogger watermill.LoggerAdapter) {
	router.AddMiddleware(middleware.Recoverer)

	router.AddMiddleware(func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx := msg.Context()

			reqCorrelationID := msg.Metadata.Get("correlation_id")
			if reqCorrelationID == "" {
				reqCorrelationID = shortuuid.New()
			}

			ctx = log.ToContext(ctx, logrus.WithFields(logrus.Fields{"correlation_id": reqCorrelationID}))
			ctx = log.ContextWithCorrelationID(ctx, reqCorrelationID)

			msg.SetContext(ctx)

			return h(msg)
		}
	})

	router.AddMiddleware(func(next message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			logger := log.FromContext(msg.Context()).WithFields(logrus.Fields{
				"message_id": msg.UUID,
				"metadata":   msg.Metadata,
			})

			logger.Info("Handling a message")

			msgs, err := next(msg)
			if err != nil {
				logger.WithError(err).Error("Error while handling a message")
			}

			return msgs, err
		}
	})

	router.AddMiddleware(DeadLetterQueue(deadLetterPub))

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      cfg.ConsumerMaxRetries,
		InitialInterval: cfg.ConsumerInitialInterval,
		MaxInterval:     4 * cfg.ConsumerInitialInterval,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)
}

// DeadLetterQueue routes a message whose handler failed even after retries
// to its source topic suffixed ".DLT", then acks it so the partition is not
// blocked. The original error ends up in the dead message's metadata.
func DeadLetterQueue(pub message.Publisher) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := h(msg)
			if err == nil {
				return msgs, nil
			}

			topic := message.SubscribeTopicFromCtx(msg.Context())
			if topic == "" {
				return msgs, err
			}

			dead := msg.Copy()
			dead.Metadata.Set("dead_letter_reason", err.Error())
			dead.Metadata.Set("dead_letter_topic", topic)

			if pubErr := pub.Publish(topic+".DLT", dead); pubErr != nil {
				log.FromContext(msg.Context()).
					WithField("message_id", msg.UUID).
					Errorf("could not publish to dead letter topic: %v", pubErr)
				return msgs, err
			}

			log.FromContext(msg.Context()).
				WithField("message_id", msg.UUID).
				WithField("topic", topic+".DLT").
				Error("Message routed to dead letter topic")

			return nil, nil
		}
	}
}
