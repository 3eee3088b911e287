package client

import (
	"errors"
	"fmt"
	"net/http"
)

// KeyClientSide marks failures that never produced a service response.
const KeyClientSide = "CLIENT_SIDE"

// APIError is the normalised failure of a learninghouse call.
type APIError struct {
	Status  int
	Key     string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Key, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func clientSideError(err error) *APIError {
	return &APIError{
		Status:  0,
		Key:     KeyClientSide,
		Message: "Client side or network error occured.",
		Err:     err,
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401 answer, which can happen despite local
// expiry checks when clocks are skewed.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
