package errors

import (
	"net/http"
	"testing"
	"time"

	apperrors "roombook/pkg/errors"
)

func TestRejectionStatusCodes(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        *apperrors.AppError
		wantCode   string
		wantStatus int
	}{
		{
			name:       "user not found",
			err:        UserNotFound("u1"),
			wantCode:   CodeUserNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "meeting room not found",
			err:        MeetingRoomNotFound("r1"),
			wantCode:   CodeMeetingRoomNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "booking not found",
			err:        BookingNotFound("b1"),
			wantCode:   CodeBookingNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "past start date",
			err:        PastStartDate(now.Add(-time.Hour), now),
			wantCode:   CodePastStartDate,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "past end date",
			err:        PastEndDate(now.Add(-time.Hour), now),
			wantCode:   CodePastEndDate,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid date range",
			err:        InvalidDateRange(now.Add(2*time.Hour), now.Add(time.Hour)),
			wantCode:   CodeInvalidDateRange,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "date conflict",
			err:        DateConflict("r1", now, now.Add(time.Hour)),
			wantCode:   CodeDateConflict,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestDateConflictDetails(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	err := DateConflict("r1", start, end)

	if err.Details["meeting_room_id"] != "r1" {
		t.Errorf("expected meeting_room_id detail, got %v", err.Details["meeting_room_id"])
	}
	if err.Details["start_time"] != start.Format(time.RFC3339) {
		t.Errorf("expected RFC3339 start_time, got %v", err.Details["start_time"])
	}
}
