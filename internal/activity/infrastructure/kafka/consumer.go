package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/grocery-cart/internal/activity/application"
	"github.com/dmehra2102/grocery-cart/pkg/idempotency"
	"github.com/dmehra2102/grocery-cart/pkg/outbox"
	"github.com/dmehra2102/grocery-cart/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Dedup is satisfied by *idempotency.Store.
type Dedup interface {
	Key(topic string, partition int, offset int64) string
	Processed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string) error
}

type Consumer struct {
	log       *slog.Logger
	reader    Reader
	projector *application.Projector
	idem      Dedup
	tracer    trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, projector *application.Projector, idem Dedup) *Consumer {
	return &Consumer{
		log:       log,
		reader:    reader,
		projector: projector,
		idem:      idem,
		tracer:    otel.Tracer("activity-consumer"),
	}
}

// Run projects messages until ctx is cancelled. A message is committed only
// once it is projected or known to be a duplicate; any other failure stops
// Run with the message uncommitted so the group redelivers it.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	key := c.dedupKey(msg)
	done, err := c.idem.Processed(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency check %s: %w", key, err)
	}
	if done {
		c.log.Info("duplicate message skipped", "key", key)
		return nil
	}

	if err := c.handle(ctx, msg); err != nil {
		return err
	}
	if err := c.idem.MarkProcessed(ctx, key); err != nil {
		return fmt.Errorf("mark processed %s: %w", key, err)
	}
	return nil
}

// dedupKey prefers the outbox event id, which survives a relay re-sending
// the same event at a new offset.
func (c *Consumer) dedupKey(msg kafka.Message) string {
	if id := tracing.HeaderValue(msg.Headers, outbox.HeaderEventID); id != "" {
		return idempotency.EventKey(string(msg.Key), id)
	}
	return c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	eventType := tracing.HeaderValue(msg.Headers, outbox.HeaderEventType)
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ProjectCartActivity",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("session.id", string(msg.Key)),
		))
	defer span.End()

	err := c.projector.Apply(msgCtx, eventType, msg.Value)
	switch {
	case errors.Is(err, application.ErrUnknownEvent), errors.Is(err, application.ErrMalformedEvent):
		c.log.Warn("unprojectable event skipped", "type", eventType, "offset", msg.Offset, "err", err)
		return nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Error("projection failed", "type", eventType, "session_id", string(msg.Key), "err", err)
		return fmt.Errorf("project %s at offset %d: %w", eventType, msg.Offset, err)
	}
	c.log.Debug("cart activity projected", "type", eventType, "session_id", string(msg.Key))
	return nil
}
