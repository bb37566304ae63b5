package model

import (
	"time"
)

type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	MeetingRoomID string    `json:"meeting_room_id" bson:"meeting_room_id" validate:"required,mongodb"`
	BookedByID    string    `json:"booked_by_id" bson:"booked_by_id" validate:"required,mongodb"`
	StartTime     time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Purpose       string    `json:"purpose" bson:"purpose" validate:"required,min=2,max=200"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingRequest carries the mutable fields of a booking. An update replaces
// all of them at once; the booking id never changes.
type BookingRequest struct {
	MeetingRoomID string    `json:"meeting_room_id" validate:"required,mongodb"`
	BookedByID    string    `json:"booked_by_id" validate:"required,mongodb"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
	Purpose       string    `json:"purpose" validate:"required,min=2,max=200"`
}
