package validator

import (
	"testing"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"
)

func testValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewBookingValidator(log)
}

func validRequest() *model.BookingRequest {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &model.BookingRequest{
		MeetingRoomID: "64f1b9f0a2d3c4e5f6a7b8ca",
		BookedByID:    "64f1b9f0a2d3c4e5f6a7b8c9",
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Purpose:       "Sprint planning",
	}
}

func TestValidate_ValidRequest(t *testing.T) {
	v := testValidator()
	if err := v.Validate(validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.BookingRequest)
	}{
		{
			name:   "missing room id",
			mutate: func(r *model.BookingRequest) { r.MeetingRoomID = "" },
		},
		{
			name:   "malformed room id",
			mutate: func(r *model.BookingRequest) { r.MeetingRoomID = "not-an-object-id" },
		},
		{
			name:   "missing user id",
			mutate: func(r *model.BookingRequest) { r.BookedByID = "" },
		},
		{
			name:   "malformed user id",
			mutate: func(r *model.BookingRequest) { r.BookedByID = "1234" },
		},
		{
			name:   "missing start time",
			mutate: func(r *model.BookingRequest) { r.StartTime = time.Time{} },
		},
		{
			name:   "missing end time",
			mutate: func(r *model.BookingRequest) { r.EndTime = time.Time{} },
		},
		{
			name:   "missing purpose",
			mutate: func(r *model.BookingRequest) { r.Purpose = "" },
		},
		{
			name:   "purpose too short",
			mutate: func(r *model.BookingRequest) { r.Purpose = "x" },
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validRequest()
			tt.mutate(request)

			if err := v.Validate(request); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
