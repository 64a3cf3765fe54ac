package message

import (
	"bookings/config"
	"bookings/message/event"
	"bookings/message/sagas"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NewWatermillRouter wires the inbound consumers: the payment saga and the
// catalog sync handlers. Every handler sits behind the shared middleware
// chain (correlation ID, logging, bounded retry, dead-letter routing).
func NewWatermillRouter(
	publisher message.Publisher,
	eventProcessorConfig cqrs.EventProcessorConfig,
	paymentSaga sagas.PaymentSaga,
	eventHandler event.Handler,
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
) *message.Router {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		panic(err)
	}

	useMiddlewares(router, publisher, cfg, watermillLogger)

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		panic(err)
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler(
			"OnPaymentCompleted",
			paymentSaga.OnPaymentCompleted,
		),
		cqrs.NewEventHandler(
			"OnPaymentFailed",
			paymentSaga.OnPaymentFailed,
		),
		cqrs.NewEventHandler(
			"OnPaymentRefunded",
			paymentSaga.OnPaymentRefunded,
		),
		cqrs.NewEventHandler(
			"OnSeatCatalogInitialized",
			eventHandler.OnSeatCatalogInitialized,
		),
		cqrs.NewEventHandler(
			"OnGameInfoUpdated",
			eventHandler.OnGameInfoUpdated,
		),
	)
	if err != nil {
		panic(err)
	}

	return router
}
