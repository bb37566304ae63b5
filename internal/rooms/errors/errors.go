package errors

import (
	"errors"
	"net/http"

	apperrors "roombook/pkg/errors"
)

var (
	ErrNotFound = errors.New("meeting room not found")

	ErrInvalidID = errors.New("invalid meeting room ID format")
)

const (
	CodeNotFound   = "MEETING_ROOM_NOT_FOUND"
	CodeNameExists = "MEETING_ROOM_NAME_EXISTS"
)

func NotFoundByID(id string) *apperrors.AppError {
	return apperrors.New(CodeNotFound, "Meeting room not found", http.StatusNotFound).
		WithDetails(map[string]any{"id": id})
}

func NameExists(name string) *apperrors.AppError {
	return apperrors.New(CodeNameExists, "A meeting room with this name already exists", http.StatusConflict).
		WithDetails(map[string]any{"name": name})
}
