package notifier

import (
	"context"
	"fmt"

	"roombook/internal/bookings/events"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
)

// Notifier consumes booking events and renders a notification per event.
// Delivery is a log line for now; the rendering is kept separate so a mail
// or chat backend can slot in behind renderMessage.
type Notifier struct {
	log *logger.Logger
}

func NewNotifier(log *logger.Logger) *Notifier {
	return &Notifier{log: log}
}

// Handle implements kafka.MessageHandler. Undecodable payloads are permanent
// failures and go straight to the DLQ instead of being retried.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()

	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode booking event", err)
	}

	n.log.Info("Booking notification",
		"event_id", msg.GetEventID(),
		"event_type", eventType,
		"booking_id", event.BookingID,
		"message", n.renderMessage(eventType, &event),
	)

	return nil
}

func (n *Notifier) renderMessage(eventType string, event *events.BookingEvent) string {
	window := fmt.Sprintf("%s to %s",
		event.StartTime.Format("Mon Jan 2 15:04"),
		event.EndTime.Format("15:04"),
	)

	switch eventType {
	case events.TypeBookingCreated:
		return fmt.Sprintf("Room %s booked by %s for %q, %s",
			event.MeetingRoomID, event.BookedByID, event.Purpose, window)
	case events.TypeBookingUpdated:
		return fmt.Sprintf("Booking %s moved to %s in room %s",
			event.BookingID, window, event.MeetingRoomID)
	case events.TypeBookingDeleted:
		return fmt.Sprintf("Booking %s for room %s (%s) was cancelled",
			event.BookingID, event.MeetingRoomID, window)
	default:
		return fmt.Sprintf("Booking %s changed (%s)", event.BookingID, eventType)
	}
}
