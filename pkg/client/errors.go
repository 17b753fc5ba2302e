package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrTokenNotFound is returned by Login when the response carries no token.
	ErrTokenNotFound = errors.New("token not found in response")

	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("client is closed")
)

// ErrorClass groups failures for metrics and logging.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassUnauthorized represents 401 and 403 responses.
	ErrorClassUnauthorized ErrorClass = "unauthorized"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a non-2xx response from Sight.
type APIError struct {
	StatusCode int
	Class      ErrorClass

	// Code and Message come from the JSON error body. Both are empty when the
	// body was not a JSON object.
	Code    string
	Message string

	// Body is the raw response body.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API Error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API Error %d: %s", e.StatusCode, e.Body)
}

// parseAPIError builds an APIError from an error response body.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Class:      classifyStatus(statusCode),
		Body:       string(body),
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return apiErr
	}

	apiErr.Code = stringField(payload, "errorCode", "Unknown")
	apiErr.Message = stringField(payload, "message", "An unknown error occurred.")
	return apiErr
}

// stringField returns payload[name] rendered as text, or fallback when absent.
func stringField(payload map[string]json.RawMessage, name, fallback string) string {
	raw, ok := payload[name]
	if !ok {
		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// classifyStatus maps an HTTP status to an ErrorClass.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorClassUnauthorized
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// StatusCode returns the HTTP status of an APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
