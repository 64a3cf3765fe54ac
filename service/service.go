package service

import (
	"context"
	stdHTTP "net/http"

	"bookings/booking"
	"bookings/config"
	"bookings/db"
	bookingsHttp "bookings/http"
	"bookings/locks"
	"bookings/message"
	"bookings/message/event"
	"bookings/message/sagas"
	"bookings/outbox"
	"bookings/workers"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	watermillRouter *watermillMessage.Router
	echoRouter      *echo.Echo
	outboxPublisher *outbox.Publisher
	outboxCleaner   *outbox.Cleaner
	expirySweeper   *workers.ExpirySweeper
	auditor         *workers.Auditor
}

func New(
	redisClient *redis.Client,
	conn db.DB,
	cfg config.Config,
) Service {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher := message.NewRedisPublisher(redisClient, watermillLogger)

	bookingRepo := db.NewBookingRepository(&conn)
	seatRepo := db.NewSeatRepository(&conn)
	gameRepo := db.NewGameRepository(&conn)
	outboxRepo := db.NewOutboxRepository(&conn)
	processedEvents := db.NewProcessedEventRepository(&conn)

	seatLocks := locks.NewCoordinator(redisClient, cfg.LockWaitTimeout, cfg.LockLease)
	schedulerLock := locks.NewSchedulerLock(redisClient, cfg.SchedulerLockLease)

	orchestrator := booking.NewOrchestrator(
		&conn,
		bookingRepo,
		seatRepo,
		gameRepo,
		outboxRepo,
		seatLocks,
		cfg,
	)

	paymentSaga := sagas.NewPaymentSaga(orchestrator, processedEvents)
	eventsHandler := event.NewHandler(seatRepo, gameRepo, processedEvents)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)

	watermillRouter := message.NewWatermillRouter(
		redisPublisher,
		eventProcessorConfig,
		paymentSaga,
		eventsHandler,
		cfg,
		watermillLogger,
	)

	broker := outbox.NewResilientPublisher(redisPublisher, cfg.PublishTimeout)
	outboxPublisher := outbox.NewPublisher(&conn, outboxRepo, broker, schedulerLock, cfg)
	outboxCleaner := outbox.NewCleaner(outboxRepo, schedulerLock, cfg)

	expirySweeper := workers.NewExpirySweeper(bookingRepo, orchestrator, schedulerLock, cfg)
	auditor := workers.NewAuditor(&conn, seatRepo, bookingRepo, outboxRepo, schedulerLock, cfg)

	echoRouter := bookingsHttp.NewHttpRouter(orchestrator)

	return Service{
		watermillRouter: watermillRouter,
		echoRouter:      echoRouter,
		outboxPublisher: outboxPublisher,
		outboxCleaner:   outboxCleaner,
		expirySweeper:   expirySweeper,
		auditor:         auditor,
	}
}

func (s Service) Run(ctx context.Context) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// we don't want to start HTTP server before Watermill router (so service won't be healthy before it's ready)
		<-s.watermillRouter.Running()

		err := s.echoRouter.Start(":8080")
		if err != nil && err != stdHTTP.ErrServerClosed {
			return err
		}

		return nil
	})

	errgrp.Go(func() error {
		return s.outboxPublisher.Run(ctx)
	})

	errgrp.Go(func() error {
		return s.outboxCleaner.Run(ctx)
	})

	errgrp.Go(func() error {
		return s.expirySweeper.Run(ctx)
	})

	errgrp.Go(func() error {
		return s.auditor.Run(ctx)
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return s.echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}
