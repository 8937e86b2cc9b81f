package provider

import "fmt"

// UpstreamError is returned when a provider call fails.
// StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("API request failed: %d", e.StatusCode)
		if e.Message != "" {
			msg += ": " + e.Message
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s (%v)", e.Provider, e.Operation, msg, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Operation, msg)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}
