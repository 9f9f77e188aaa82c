package roblox

import (
	"fmt"
	"strings"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/transport errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError represents a failed platform request with additional context.
// Network failures carry StatusCode 0 and class "network"; non-2xx responses
// carry the status and the raw response body.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: %d - %s", e.Message, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %d", e.Message, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus categorizes an HTTP status for observability and handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// LimitClassifier decides whether a create failure means the per-experience
// gamepass cap was reached. Pluggable so a structured status-code rule can
// replace the keyword heuristic without touching the orchestrator.
type LimitClassifier func(err error) bool

// IsLimitError reports whether err looks like the platform's gamepass limit.
// The platform returns a generic 500/InternalError at the 50-passes-per-
// experience cap rather than a distinct code, so this matches on message
// content. Known false-positive risk: an unrelated 500 is indistinguishable
// from a true limit hit.
func IsLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "InternalError") || strings.Contains(msg, "500") {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "limit") ||
		strings.Contains(lower, "maximum") ||
		strings.Contains(lower, "too many")
}
