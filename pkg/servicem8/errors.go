package servicem8

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category classifies an upstream API failure. Classification happens once,
// here, when the error body is parsed; callers branch on the category and
// never inspect message text themselves.
type Category string

const (
	// CategoryConflict is a uniqueness-constraint violation (e.g. company
	// name already taken). The API has no structured code for this, so it is
	// recognized from the message at this boundary only.
	CategoryConflict Category = "conflict"
	// CategoryValidation is a rejected request body or missing field.
	CategoryValidation Category = "validation"
	// CategoryNotFound is a missing record.
	CategoryNotFound Category = "not_found"
	// CategoryAuth is a rejected API key.
	CategoryAuth Category = "auth"
	// CategoryTransient is a retryable server-side failure.
	CategoryTransient Category = "transient"
	// CategoryUnknown is everything else.
	CategoryUnknown Category = "unknown"
)

// APIError is a non-success response from the ServiceM8 API, parsed into a
// message, an optional documentation link and a category.
type APIError struct {
	StatusCode    int
	Message       string
	Documentation string
	Category      Category
}

func (e *APIError) Error() string {
	if e.Documentation != "" {
		return fmt.Sprintf("servicem8: %s (%s)", e.Message, e.Documentation)
	}
	return fmt.Sprintf("servicem8: %s", e.Message)
}

// CategoryOf returns the category of err if it carries an APIError, else
// CategoryUnknown.
func CategoryOf(err error) Category {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Category
	}
	return CategoryUnknown
}

// IsConflict reports whether err is a uniqueness-constraint violation.
func IsConflict(err error) bool {
	return CategoryOf(err) == CategoryConflict
}

// errorBody is the JSON error payload the API returns.
type errorBody struct {
	ErrorCode     int    `json:"errorCode"`
	Message       string `json:"message"`
	Documentation string `json:"documentation"`
}

// classify builds an APIError from a non-success status and response body.
// The raw body is never propagated verbatim unless it is short and not JSON.
func classify(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("error %d", status),
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			apiErr.Message = parsed.Message
		}
		apiErr.Documentation = parsed.Documentation
	} else if len(body) > 0 && len(body) < 200 {
		apiErr.Message = string(body)
	}

	apiErr.Category = categorize(status, apiErr.Message)
	return apiErr
}

func categorize(status int, message string) Category {
	msg := strings.ToLower(message)
	if strings.Contains(msg, "unique") {
		return CategoryConflict
	}

	switch {
	case status == 401 || status == 403:
		return CategoryAuth
	case status == 404:
		return CategoryNotFound
	case retryableStatusCode(status):
		return CategoryTransient
	}

	if status == 400 ||
		strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "required") ||
		strings.Contains(msg, "mandatory") ||
		strings.Contains(msg, "bad request") {
		return CategoryValidation
	}
	if strings.Contains(msg, "not found") {
		return CategoryNotFound
	}
	return CategoryUnknown
}
