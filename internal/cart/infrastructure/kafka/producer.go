package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer publishes cart activity keyed by session id. The hash balancer
// keeps one session's events on one partition so consumers see them in order.
type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           20 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}
