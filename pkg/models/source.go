package models

import "fmt"

// FindingSeverity grades a payload or validation finding
type FindingSeverity string

const (
	SeverityWarning FindingSeverity = "warning"
	SeverityError   FindingSeverity = "error"
)

// Finding reports a problem with vendor data that did not abort processing
type Finding struct {
	Field    string          `json:"field"`
	Severity FindingSeverity `json:"severity"`
	Message  string          `json:"message"`
}

// SourceRequest is a single outbound request to an upstream source
type SourceRequest struct {
	Method string // defaults to GET
	URL    string
	Header map[string]string
}

// SourceResponse is the upstream's answer to a SourceRequest
type SourceResponse struct {
	StatusCode int
	Body       []byte
	Header     map[string]string
}

// SourceStatus is the health snapshot for one upstream source
type SourceStatus struct {
	SourceID        string `json:"source_id"`
	DisplayName     string `json:"display_name,omitempty"`
	CircuitState    string `json:"circuit_state"`
	FailureCount    int    `json:"failure_count"`
	MinuteCount     int    `json:"minute_count"`
	MinuteRemaining int    `json:"minute_remaining"`
	HourCount       int    `json:"hour_count"`
	HourRemaining   int    `json:"hour_remaining"`
}

// HTTPError represents an HTTP error response from an upstream source
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
