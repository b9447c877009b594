package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geocoder89/yardsale/internal/domain/event"
)

const DefaultStream = "yardsale:events"

// Message is the wire shape of a domain event on the stream.
type Message struct {
	Name        string          `json:"name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Data        json.RawMessage `json:"data"`
}

func Encode(de event.DomainEvent) (Message, error) {
	data, err := json.Marshal(de)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", de.Name(), err)
	}

	return Message{
		Name:        de.Name(),
		AggregateID: de.AggregateID(),
		OccurredAt:  de.OccurredAt().UTC(),
		Data:        data,
	}, nil
}

func (m Message) values() map[string]any {
	return map[string]any{
		"name":         m.Name,
		"aggregate_id": m.AggregateID,
		"occurred_at":  m.OccurredAt.Format(time.RFC3339Nano),
		"data":         string(m.Data),
	}
}

// StreamPublisher appends domain events to a redis stream.
type StreamPublisher struct {
	rdb    redis.Cmdable
	stream string
	maxLen int64
}

func NewStreamPublisher(rdb redis.Cmdable, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}

	return &StreamPublisher{
		rdb:    rdb,
		stream: stream,
		maxLen: 100_000,
	}
}

func (p *StreamPublisher) Publish(ctx context.Context, de event.DomainEvent) error {
	msg, err := Encode(de)
	if err != nil {
		return err
	}

	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: msg.values(),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}

	return nil
}

// LogPublisher writes domain events to the log. It is used when redis is not
// configured.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, de event.DomainEvent) error {
	msg, err := Encode(de)
	if err != nil {
		return err
	}

	p.log.InfoContext(ctx, "domain_event",
		"name", msg.Name,
		"aggregate_id", msg.AggregateID,
		"occurred_at", msg.OccurredAt,
		"data", string(msg.Data),
	)
	return nil
}
