package errors

import (
	"errors"
	"net/http"
	"time"

	apperrors "roombook/pkg/errors"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrLockHeld means another request holds the room's advisory lock.
	ErrLockHeld = errors.New("booking lock already held")
)

// Stable rejection identifiers. Clients branch on these, so they never change.
const (
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeMeetingRoomNotFound = "MEETING_ROOM_NOT_FOUND"
	CodeBookingNotFound     = "BOOKING_NOT_FOUND"
	CodePastStartDate       = "BOOKING_PAST_START_DATE"
	CodePastEndDate         = "BOOKING_PAST_END_DATE"
	CodeInvalidDateRange    = "BOOKING_INVALID_DATE"
	CodeDateConflict        = "BOOKING_DATE_CONFLICT"
)

func UserNotFound(userID string) *apperrors.AppError {
	return apperrors.New(CodeUserNotFound, "Booking user does not exist", http.StatusNotFound).
		WithDetails(map[string]any{"booked_by_id": userID})
}

func MeetingRoomNotFound(roomID string) *apperrors.AppError {
	return apperrors.New(CodeMeetingRoomNotFound, "Meeting room does not exist", http.StatusNotFound).
		WithDetails(map[string]any{"meeting_room_id": roomID})
}

func BookingNotFound(id string) *apperrors.AppError {
	return apperrors.New(CodeBookingNotFound, "Booking not found", http.StatusNotFound).
		WithDetails(map[string]any{"id": id})
}

func PastStartDate(start, now time.Time) *apperrors.AppError {
	return apperrors.New(CodePastStartDate, "Booking start time is in the past", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{
			"start_time": start.Format(time.RFC3339),
			"now":        now.Format(time.RFC3339),
		})
}

func PastEndDate(end, now time.Time) *apperrors.AppError {
	return apperrors.New(CodePastEndDate, "Booking end time is in the past", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{
			"end_time": end.Format(time.RFC3339),
			"now":      now.Format(time.RFC3339),
		})
}

func InvalidDateRange(start, end time.Time) *apperrors.AppError {
	return apperrors.New(CodeInvalidDateRange, "Booking end time must be after start time", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{
			"start_time": start.Format(time.RFC3339),
			"end_time":   end.Format(time.RFC3339),
		})
}

func DateConflict(roomID string, start, end time.Time) *apperrors.AppError {
	return apperrors.New(CodeDateConflict, "Meeting room is already booked for the requested period", http.StatusConflict).
		WithDetails(map[string]any{
			"meeting_room_id": roomID,
			"start_time":      start.Format(time.RFC3339),
			"end_time":        end.Format(time.RFC3339),
		})
}
