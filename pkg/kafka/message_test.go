package kafka

import (
	"testing"
	"time"
)

func TestMessageBuilder_Defaults(t *testing.T) {
	msg := NewMessage().
		WithKey("b1").
		WithValue(map[string]string{"hello": "world"}).
		WithEventType("bookings.created").
		Build()

	if msg.Key != "b1" {
		t.Errorf("expected key b1, got %s", msg.Key)
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected generated timestamp header")
	}
	if _, err := time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp]); err != nil {
		t.Errorf("timestamp header is not RFC3339: %v", err)
	}
	if msg.GetEventType() != "bookings.created" {
		t.Errorf("expected event type header, got %s", msg.GetEventType())
	}
}

func TestMessage_DecodeValue(t *testing.T) {
	msg := NewMessage().
		WithKey("b1").
		WithValue(map[string]string{"purpose": "standup"}).
		Build()

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["purpose"] != "standup" {
		t.Errorf("expected decoded purpose, got %v", decoded)
	}
}

func TestMessage_RetryCountRoundTrip(t *testing.T) {
	msg := NewMessage().WithKey("b1").WithRawValue([]byte("{}")).Build()

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("expected initial retry count 0, got %d", got)
	}

	// Past single digits, so a naive rune conversion would break here.
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("expected retry count 12, got %d", got)
	}
}
