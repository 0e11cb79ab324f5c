package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every AppError carries one of these, so callers can use
// errors.Is regardless of the message.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrChatFailed           = errors.New("chat failed")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrIDCollision          = errors.New("document id collision")
	ErrInternal             = errors.New("internal error")
)

// AppError is an error that knows how it should be reported to a client.
type AppError struct {
	StatusCode int
	Message    string
	Kind       error
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func NewAppError(status int, kind error, message string, cause error) *AppError {
	return &AppError{
		StatusCode: status,
		Message:    message,
		Kind:       kind,
		Cause:      cause,
	}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrInvalidInput, message, nil)
}

func NewInternalError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, ErrInternal, message, nil)
}

func NewUnsupportedMediaTypeError(contentType string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrUnsupportedMediaType,
		fmt.Sprintf("Unsupported file type '%s'. Only PDF and image files are allowed", contentType), nil)
}

func NewSessionNotFoundError(id string) *AppError {
	return NewAppError(http.StatusNotFound, ErrSessionNotFound,
		fmt.Sprintf("Data not found for document '%s'", id), nil)
}

func NewUnsupportedFormatError(format string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrUnsupportedFormat,
		fmt.Sprintf("Invalid format '%s'. Use csv or xlsx", format), nil)
}

// NewExtractionFailedError carries the upstream message to the client.
func NewExtractionFailedError(cause error) *AppError {
	return NewAppError(http.StatusInternalServerError, ErrExtractionFailed,
		fmt.Sprintf("Extraction failed: %s", upstreamMessage(cause)), cause)
}

func NewChatFailedError(cause error) *AppError {
	return NewAppError(http.StatusInternalServerError, ErrChatFailed,
		fmt.Sprintf("Chat failed: %s", upstreamMessage(cause)), cause)
}

func NewUpstreamUnavailableError(cause error) *AppError {
	return NewAppError(http.StatusInternalServerError, ErrUpstreamUnavailable,
		"Model API is not configured", cause)
}

func upstreamMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
