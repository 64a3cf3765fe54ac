package main

import (
	"context"
	"os"
	"os/signal"

	"bookings/config"
	"bookings/db"
	"bookings/message"
	"bookings/service"
	observability "bookings/trace"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

func main() {
	log.Init(logrus.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := config.Default()

	conn, err := db.NewDBConn(ctx, os.Getenv("POSTGRES_URL"))
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	conn.MigrateSchema()

	redisClient := message.NewRedisClient(os.Getenv("REDIS_ADDR"))
	defer redisClient.Close()

	tp := observability.ConfigureTraceProvider()
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	err = service.New(redisClient, conn, cfg).Run(ctx)
	if err != nil {
		panic(err)
	}
}
