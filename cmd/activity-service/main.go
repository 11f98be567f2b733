package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/grocery-cart/internal/activity/application"
	activitykafka "github.com/dmehra2102/grocery-cart/internal/activity/infrastructure/kafka"
	activityredis "github.com/dmehra2102/grocery-cart/internal/activity/infrastructure/redis"
	"github.com/dmehra2102/grocery-cart/pkg/idempotency"
	"github.com/dmehra2102/grocery-cart/pkg/logging"
	"github.com/dmehra2102/grocery-cart/pkg/shutdown"
	"github.com/dmehra2102/grocery-cart/pkg/tracing"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	kafkaBrokers := []string{env("KAFKA_ADDR", "localhost:9092")}
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	inTopic := env("IN_TOPIC", "cart.events")
	group := env("GROUP_ID", "activity-service")
	otelURL := env("OTEL_EXPORTER_URL", "")

	tp, err := tracing.Init(ctx, "activity-service", otelURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis ping failed", "addr", redisAddr, "err", err)
		os.Exit(1)
	}

	idem := idempotency.NewStore(rdb, 24*time.Hour)
	projector := application.NewProjector(log, activityredis.NewCounters(rdb))
	reader := activitykafka.NewReader(kafkaBrokers, inTopic, group)
	consumer := activitykafka.NewConsumer(log, reader, projector, idem)

	log.Info("activity consumer starting", "topic", inTopic, "group", group)
	if err := consumer.Run(ctx); err != nil {
		log.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("activity-service shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
