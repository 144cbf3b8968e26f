package identsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents an unsuccessful response from the ident service. The
// Message is the server's user-facing message, suitable for display.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Message is the message field of the response envelope.
	Message string

	// RequiresTwoFactor is set when login was rejected because the account
	// has a second factor enrolled and the flow must continue elsewhere.
	RequiresTwoFactor bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("ident: %d %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the server rejected the credentials or token.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsConflict reports whether the request collided with existing state, such
// as registering an email that is already taken.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsRateLimited reports whether the server throttled the request.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// parseErrorResponse converts a non-success response body into an *APIError.
func parseErrorResponse(statusCode int, body []byte) error {
	var envelope struct {
		result
		RequiresTwoFactor bool `json:"requiresTwoFactor"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		return &APIError{
			StatusCode: statusCode,
			Message:    http.StatusText(statusCode),
		}
	}

	return &APIError{
		StatusCode:        statusCode,
		Message:           envelope.Message,
		RequiresTwoFactor: envelope.RequiresTwoFactor,
	}
}
