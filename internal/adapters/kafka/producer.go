package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ActivityEvent is the record published to the list-activity topic for
// downstream consumers (analytics, audit). It mirrors what was broadcast
// to live sessions but is keyed by list so per-list ordering holds.
type ActivityEvent struct {
	Event     string      `json:"event"`
	TenantID  string      `json:"tenant_id"`
	ListID    string      `json:"list_id"`
	ActorID   string      `json:"actor_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ActivityProducer publishes list activity to Kafka. Publishing is fire and
// forget from the caller's perspective; a broker outage must never fail a
// user-facing request.
type ActivityProducer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewActivityProducer(brokers []string, topic string, logger *slog.Logger) *ActivityProducer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
	}
	return &ActivityProducer{writer: w, logger: logger}
}

// Publish enqueues one activity event. Errors are logged, not returned; the
// async writer surfaces most failures on a later flush anyway.
func (p *ActivityProducer) Publish(ctx context.Context, ev ActivityEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal activity event", "event", ev.Event, "error", err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ListID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("publish activity event",
			"event", ev.Event, "listID", ev.ListID, "error", err)
	}
}

func (p *ActivityProducer) Close() error {
	return p.writer.Close()
}
