package errors

import (
	"errors"
	"net/http"

	apperrors "roombook/pkg/errors"
)

var (
	ErrNotFound = errors.New("user not found")

	ErrInvalidID = errors.New("invalid user ID format")
)

const (
	CodeNotFound       = "USER_NOT_FOUND"
	CodeEmailExists    = "USER_EMAIL_EXISTS"
	CodeUsernameExists = "USER_USERNAME_EXISTS"
)

func NotFoundByID(id string) *apperrors.AppError {
	return apperrors.New(CodeNotFound, "User not found", http.StatusNotFound).
		WithDetails(map[string]any{"id": id})
}

func EmailExists(email string) *apperrors.AppError {
	return apperrors.New(CodeEmailExists, "A user with this email already exists", http.StatusConflict).
		WithDetails(map[string]any{"email": email})
}

func UsernameExists(username string) *apperrors.AppError {
	return apperrors.New(CodeUsernameExists, "A user with this username already exists", http.StatusConflict).
		WithDetails(map[string]any{"username": username})
}
