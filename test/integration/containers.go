//go:build integration

// Package integration starts the backing services the cart stores talk to.
package integration

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Env struct {
	PG        *postgres.PostgresContainer
	Redis     *tcredis.RedisContainer
	Kafka     *kafka.KafkaContainer
	PGURL     string
	RedisAddr string
	KAddr     []string
	Cancel    context.CancelFunc
}

type Option func(*options)

type options struct {
	postgres bool
	redis    bool
	kafka    bool
}

func WithPostgres() Option { return func(o *options) { o.postgres = true } }
func WithRedis() Option    { return func(o *options) { o.redis = true } }
func WithKafka() Option    { return func(o *options) { o.kafka = true } }

// Setup starts only the containers asked for. Callers must Teardown even
// when Setup fails half way.
func Setup(ctx context.Context, opts ...Option) (*Env, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	env := &Env{Cancel: cancel}

	if o.postgres {
		pgC, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("grocery"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(time.Minute)),
		)
		if err != nil {
			return env, err
		}
		env.PG = pgC
		if env.PGURL, err = pgC.ConnectionString(ctx, "sslmode=disable"); err != nil {
			return env, err
		}
	}

	if o.redis {
		rC, err := tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			return env, err
		}
		env.Redis = rC
		if env.RedisAddr, err = rC.Endpoint(ctx, ""); err != nil {
			return env, err
		}
	}

	if o.kafka {
		kafkaC, err := kafka.Run(ctx,
			"confluentinc/confluent-local:7.5.0",
			kafka.WithClusterID("grocery-cart-test"),
		)
		if err != nil {
			return env, err
		}
		env.Kafka = kafkaC
		if env.KAddr, err = kafkaC.Brokers(ctx); err != nil {
			return env, err
		}
	}
	return env, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	if e.Kafka != nil {
		_ = e.Kafka.Terminate(ctx)
	}
	if e.Redis != nil {
		_ = e.Redis.Terminate(ctx)
	}
	if e.PG != nil {
		_ = e.PG.Terminate(ctx)
	}
}
