package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Event types emitted by the service.
const (
	EventTypeAttemptSubmitted       = "attempt.submitted"
	EventTypeExamPublished          = "exam.published"
	EventTypePasswordResetRequested = "auth.password_reset_requested"
)

// Topic is the single stream all service events go to. Consumers fan out
// by the event_type metadata.
const Topic = "exam-events"

const eventSource = "exam-service"

// Event is the envelope every published message carries.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Publisher emits domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}

// WatermillPublisher wraps a watermill message publisher with the event
// envelope.
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewGoChannelPublisher returns an in-process publisher, the default when
// no broker is configured.
func NewGoChannelPublisher(logger *slog.Logger) *WatermillPublisher {
	pub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return &WatermillPublisher{
		publisher: pub,
		logger:    logger,
	}
}

// NewKafkaPublisher returns a publisher backed by kafka.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*WatermillPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return &WatermillPublisher{
		publisher: pub,
		logger:    logger,
	}, nil
}

func (p *WatermillPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	event := NewEvent(eventType, data)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", eventType)

	if err := p.publisher.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}

	p.logger.Debug("event published", "event_id", event.ID, "event_type", eventType)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
