package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent_Envelope(t *testing.T) {
	event := NewEvent(EventTypeAttemptSubmitted, map[string]int{"score": 3})

	if event.ID == "" {
		t.Error("event id should not be empty")
	}
	if event.Type != EventTypeAttemptSubmitted {
		t.Errorf("expected type %q, got %q", EventTypeAttemptSubmitted, event.Type)
	}
	if event.Source != "exam-service" {
		t.Errorf("expected source exam-service, got %q", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("expected version 1.0, got %q", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp should be set")
	}
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher()
	ctx := context.Background()

	if err := publisher.Publish(ctx, EventTypeExamPublished, map[string]uint{"exam_id": 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := publisher.Publish(ctx, EventTypeAttemptSubmitted, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(published))
	}
	if published[0].Type != EventTypeExamPublished {
		t.Errorf("expected first event %q, got %q", EventTypeExamPublished, published[0].Type)
	}

	publisher.ClearEvents()
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("expected no events after clear, got %d", len(got))
	}
}

func TestGoChannelPublisher(t *testing.T) {
	publisher := NewGoChannelPublisher(discardLogger())
	defer publisher.Close()

	err := publisher.Publish(context.Background(), EventTypePasswordResetRequested, map[string]string{
		"user_id": "abc",
	})
	if err != nil {
		t.Fatalf("publish through gochannel: %v", err)
	}
}
