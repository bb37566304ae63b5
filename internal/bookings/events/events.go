package events

import (
	"context"
	"time"

	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

// Event types published on the bookings topic.
const (
	TypeBookingCreated = "bookings.created"
	TypeBookingUpdated = "bookings.updated"
	TypeBookingDeleted = "bookings.deleted"

	SchemaVersion = "1"
	Source        = "bookings-service"
)

// BookingEvent is the payload published for every booking state change.
type BookingEvent struct {
	BookingID     string    `json:"booking_id"`
	MeetingRoomID string    `json:"meeting_room_id"`
	BookedByID    string    `json:"booked_by_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Purpose       string    `json:"purpose"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher is the producer surface the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Emitter publishes booking events after the database commit. Publishing is
// best-effort: a broker failure is logged, never returned to the caller,
// because the booking is already committed.
type Emitter struct {
	producer Publisher
	log      *logger.Logger
}

func NewEmitter(producer Publisher, log *logger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		log:      log,
	}
}

func (e *Emitter) Emit(ctx context.Context, eventType string, booking *model.Booking) {
	if e == nil || e.producer == nil {
		return
	}

	event := BookingEvent{
		BookingID:     booking.ID,
		MeetingRoomID: booking.MeetingRoomID,
		BookedByID:    booking.BookedByID,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		Purpose:       booking.Purpose,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()

	if err := e.producer.Publish(ctx, msg); err != nil {
		e.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	e.log.Debug("Booking event published",
		"event_type", eventType,
		"booking_id", booking.ID,
	)
}
