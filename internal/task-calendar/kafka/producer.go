package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"

	"task-calendar/internal/task-calendar/events"
)

const publishTimeout = 10 * time.Second

// NewLogChangeWriter configures the producer for the log change topic.
func NewLogChangeWriter(brokers []string, topic string) *kafka.Writer {
	producer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
		Async:        false,
	})
	hlog.Infof("Log change producer configured for topic: %s", topic)
	return producer
}

// NewLogChangeReader configures a consumer group reader for the log change topic.
func NewLogChangeReader(brokers []string, topic, groupID string) *kafka.Reader {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	hlog.Infof("Log change consumer configured for topic: %s, groupID: %s", topic, groupID)
	return reader
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends log change payloads stamped with this client's origin.
type Publisher struct {
	Writer MessageWriter
	Origin string
}

func NewPublisher(w MessageWriter, origin string) *Publisher {
	return &Publisher{Writer: w, Origin: origin}
}

func (p *Publisher) PublishLogChange(ctx context.Context, payload events.LogChangePayload) error {
	payload.Origin = p.Origin
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	value, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal log change for log %s: %w", payload.Log.ID, err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	msg := kafka.Message{Key: payload.Key(), Value: value}
	if err := p.Writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to publish log change for log %s: %w", payload.Log.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}
