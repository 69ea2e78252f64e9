package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
)

// Kind classifies why a completion failed.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindNetwork      Kind = "network"
	KindStatus       Kind = "status"
	KindMalformed    Kind = "malformed"
)

// CompletionError is returned for every failed Generate call.
type CompletionError struct {
	Kind          Kind
	StatusCode    int
	ServerMessage string
	Err           error
}

func (e *CompletionError) Error() string {
	msg := fmt.Sprintf("completion failed (%s)", e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.StatusCode)
	}
	if e.ServerMessage != "" {
		msg += ": " + e.ServerMessage
	}
	if e.Err != nil && e.ServerMessage == "" {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind, empty when err is not a completion failure.
func KindOf(err error) Kind {
	var cerr *CompletionError
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

// UserMessage maps a completion failure to the text shown in the error banner.
func UserMessage(err error) string {
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		return "Failed to get a response. Please check your API key and try again."
	}

	switch cerr.Kind {
	case KindUnauthorized:
		return "Invalid API key. Please check your Claude API key and try again."
	case KindRateLimited:
		return "Rate limit exceeded. Please wait a moment and try again."
	case KindNetwork:
		return "Network error. Please check your internet connection and try again."
	}

	detail := ""
	switch {
	case cerr.StatusCode != 0 && cerr.ServerMessage != "":
		detail = fmt.Sprintf(" (status %d: %s)", cerr.StatusCode, cerr.ServerMessage)
	case cerr.StatusCode != 0:
		detail = fmt.Sprintf(" (status %d)", cerr.StatusCode)
	}
	return "Failed to get a response" + detail + ". Please try again."
}

// classify turns an SDK error into a CompletionError. status is the HTTP status
// of the final response, zero when no response arrived.
func classify(err error, status int) *CompletionError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		return &CompletionError{
			Kind:          kindForStatus(status),
			StatusCode:    status,
			ServerMessage: serverMessage(apiErr.RawJSON()),
			Err:           err,
		}
	}

	switch {
	case status == 0:
		return &CompletionError{Kind: KindNetwork, Err: err}
	case status >= 400:
		return &CompletionError{Kind: kindForStatus(status), StatusCode: status, Err: err}
	default:
		return &CompletionError{Kind: KindMalformed, StatusCode: status, Err: err}
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindStatus
	}
}

func serverMessage(raw string) string {
	if raw == "" {
		return ""
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return ""
	}
	return body.Error.Message
}
