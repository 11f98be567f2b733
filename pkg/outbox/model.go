package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one row of the transactional outbox, written in the same unit of
// work as the aggregate change it describes.
type Event struct {
	ID            int64             `json:"id"`
	AggregateType string            `json:"aggregate_type"`
	AggregateID   string            `json:"aggregate_id"`
	Type          string            `json:"type"`
	Payload       []byte            `json:"payload"`
	Headers       map[string]string `json:"headers,omitempty"`
	Traceparent   string            `json:"traceparent,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Status        Status            `json:"status"`
	RelayID       string            `json:"relay_id,omitempty"`
	RetryCount    int               `json:"retry_count,omitempty"`
	LastError     *string           `json:"last_error,omitempty"`
}
