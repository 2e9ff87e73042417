package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// TransitionRejected is returned when a requested status change is not an
// edge of the status lattice. The attempted (from, to) pair is kept in the
// message so callers can surface it as-is.
func TransitionRejected(entity, from, to string) *AppError {
	return &AppError{
		Code:    "TRANSITION_REJECTED",
		Message: fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		Status:  http.StatusConflict,
	}
}

// InvalidState is returned when an operation's precondition on another
// entity's state does not hold (e.g. opening a return on a resolved complaint).
func InvalidState(message string) *AppError {
	return &AppError{
		Code:    "INVALID_STATE",
		Message: message,
		Status:  http.StatusConflict,
	}
}

// OfferAlreadyPending is returned when a buyer attempts a new offer while one
// of theirs is still outstanding in the same room.
func OfferAlreadyPending(roomID string) *AppError {
	return &AppError{
		Code:    "OFFER_ALREADY_PENDING",
		Message: fmt.Sprintf("an offer is still pending in room %s", roomID),
		Status:  http.StatusConflict,
	}
}

// AlreadyExists signals that the resource was created by an earlier attempt.
// The offer conversion path treats this as success-with-existing, never as a
// user-facing failure.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s already exists", resource),
		Status:  http.StatusConflict,
	}
}

// OperationInProgress is returned when a second transition request arrives
// for an entity that already has one in flight.
func OperationInProgress(entity string) *AppError {
	return &AppError{
		Code:    "OPERATION_IN_PROGRESS",
		Message: fmt.Sprintf("another operation on %s is still in progress", entity),
		Status:  http.StatusConflict,
	}
}

func TooManyRequests(message string, waitTime interface{}) *AppError {
	return &AppError{
		Code:    "TOO_MANY_REQUESTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     nil,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
