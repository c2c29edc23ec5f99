package constants

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoFiles            = errors.New("No files provided")
	ErrTransport          = errors.New("Network error")
	ErrUnexpectedResponse = errors.New("Unexpected response from server")
	ErrRejected           = errors.New("Rejected")
	ErrInvalidRequest     = errors.New("Invalid request")
	ErrNotFound           = errors.New("Not found")
	ErrTooLarge           = errors.New("Payload too large")
	ErrTooManyReq         = errors.New("Too many request")
	ErrServer             = errors.New("Server error")
	ErrUnknown            = errors.New("Unknown error")
	ErrFingerprint        = errors.New("Fingerprint mismatch")
	ErrLocalFile          = errors.New("Cannot read local file")
)

// APIError is a failure reported by the gateway, either through a
// status:false envelope or a bare non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the status class so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	return kindOf(e.StatusCode)
}

func kindOf(status int) error {
	switch {
	case status >= 200 && status < 300:
		return ErrRejected
	case status == 400:
		return ErrInvalidRequest
	case status == 404:
		return ErrNotFound
	case status == 413:
		return ErrTooLarge
	case status == 429:
		return ErrTooManyReq
	case status >= 500:
		return ErrServer
	default:
		return ErrUnknown
	}
}

func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// ParseError returns nil for 2xx statuses and a generic APIError otherwise.
func ParseError(op string, status int) error {
	if IsSuccess(status) {
		return nil
	}
	return &APIError{StatusCode: status, Message: StatusMessage(op, status)}
}

// StatusMessage derives the message shown when the gateway gave none.
func StatusMessage(op string, status int) string {
	if IsSuccess(status) {
		return op + " failed"
	}
	text := http.StatusText(status)
	if text == "" {
		text = fmt.Sprintf("status %d", status)
	}
	return fmt.Sprintf("%s failed: %s", op, text)
}

// UserMessage renders err the way it is shown to a user.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrTransport):
		return "Network error, please try again"
	case errors.Is(err, ErrUnexpectedResponse):
		return ErrUnexpectedResponse.Error()
	case errors.Is(err, ErrFingerprint):
		return "Gateway certificate fingerprint mismatch"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return err.Error()
	}
}

// Status maps err to the HTTP status relayed to a browser.
func Status(err error) int {
	var apiErr *APIError
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrNoFiles):
		return 400
	case errors.As(err, &apiErr):
		if IsSuccess(apiErr.StatusCode) {
			return 400
		}
		return apiErr.StatusCode
	case errors.Is(err, ErrTransport), errors.Is(err, ErrUnexpectedResponse), errors.Is(err, ErrFingerprint):
		return 502
	case errors.Is(err, context.DeadlineExceeded):
		return 504
	case errors.Is(err, context.Canceled):
		return 409
	default:
		return 500
	}
}
