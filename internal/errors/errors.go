package errors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	// ErrUnauthorized is returned when a request carries no usable identity.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is returned when the permission evaluator or a domain check denies an action.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFormNotFound is returned when a form does not exist.
	ErrFormNotFound = fmt.Errorf("form %w", ErrNotFound)
	// ErrProjectNotFound is returned when a project does not exist.
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrThreadNotFound is returned when a project thread does not exist.
	ErrThreadNotFound = fmt.Errorf("thread %w", ErrNotFound)
	// ErrRequestNotFound is returned when a join request does not exist.
	ErrRequestNotFound = fmt.Errorf("join request %w", ErrNotFound)
	// ErrFormInactive is returned when a form is switched off.
	ErrFormInactive = errors.New("this form is currently offline")
	// ErrFormDeadlinePassed is returned when a form's closing time is in the past.
	ErrFormDeadlinePassed = errors.New("this form has automatically closed (deadline passed)")
	// ErrAlreadyMember is returned when a member asks to join their own project.
	ErrAlreadyMember = errors.New("already a member")
	// ErrDuplicateRequest is returned when a join request for the pair already exists.
	ErrDuplicateRequest = errors.New("request already exists")
	// ErrConflict is returned on uniqueness violations not covered by a more specific error.
	ErrConflict = errors.New("resource already exists")
	// ErrInvalidInput is returned for malformed payloads.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotProjectMember is returned when a non-member acts on project collaboration state.
	ErrNotProjectMember = errors.New("must be a project member")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrStorageUnavailable is returned when uploads are attempted without object storage.
	ErrStorageUnavailable = errors.New("file storage is not configured")
)

// MissingFieldError reports the first required form field without an answer.
type MissingFieldError struct {
	Label string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field '%s' is compulsory", e.Label)
}

// ValidationError reports a malformed value for a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match ValidationError against ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// IsClosed reports whether err rejects a submission because the form is closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrFormInactive) || errors.Is(err, ErrFormDeadlinePassed)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var missing *MissingFieldError
	var invalid *ValidationError

	switch {
	case errors.As(err, &missing):
		return NewHTTPError(http.StatusBadRequest, missing.Error(), "MISSING_FIELD")
	case errors.As(err, &invalid):
		return NewHTTPError(http.StatusBadRequest, invalid.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotProjectMember):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return NewHTTPError(http.StatusNotFound, notFoundMessage(err), "NOT_FOUND")
	case IsClosed(err):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "FORM_CLOSED")
	case errors.Is(err, ErrAlreadyMember):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_MEMBER")
	case errors.Is(err, ErrDuplicateRequest):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_REQUEST")
	case errors.Is(err, ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return NewHTTPError(http.StatusConflict, ErrConflict.Error(), "CONFLICT")
	case errors.Is(err, ErrStorageUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "STORAGE_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound.Error()
	}
	return err.Error()
}
