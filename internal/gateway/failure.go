package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailureKind classifies why a call did not produce the expected response.
type FailureKind string

const (
	// Unreachable means no response was received: network error, refused
	// connection, or timeout.
	Unreachable FailureKind = "unreachable"
	// Rejected means the service answered with a non-success status.
	Rejected FailureKind = "rejected"
	// MalformedResponse means a success status carried an unexpected body.
	MalformedResponse FailureKind = "malformed_response"
	// StaleSession means an authorized call found the session no longer valid.
	StaleSession FailureKind = "stale_session"
)

// RequestFailure is the single error type returned by the gateway.
type RequestFailure struct {
	Kind     FailureKind
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (f *RequestFailure) Error() string {
	msg := f.Message
	if msg == "" {
		msg = string(f.Kind)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", f.Kind, f.Endpoint, msg, f.Err)
	}
	return fmt.Sprintf("%s %s: %s", f.Kind, f.Endpoint, msg)
}

func (f *RequestFailure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *RequestFailure from err.
func AsFailure(err error) (*RequestFailure, bool) {
	var failure *RequestFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// IsKind reports whether err is a gateway failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	failure, ok := AsFailure(err)
	return ok && failure.Kind == kind
}

// IsAuthorizationFailure reports whether err is a rejection with an
// authorization-class status.
func IsAuthorizationFailure(err error) bool {
	failure, ok := AsFailure(err)
	if !ok || failure.Kind != Rejected {
		return false
	}
	return failure.Status == http.StatusUnauthorized || failure.Status == http.StatusForbidden
}

// messageFields is the order in which error bodies are searched.
var messageFields = []string{"message", "error", "detail"}

// rejectionMessage extracts a human-readable message from an error body. It
// tries the conventional fields in order, then the raw text, then a generic
// message naming the status and endpoint.
func rejectionMessage(status int, endpoint string, body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, name := range messageFields {
			if msg := fieldMessage(fields[name]); msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("Error %d calling %s", status, endpoint)
}

// fieldMessage reads a field that is either a string or an object carrying a
// nested message, as in {"error":{"code":"...","message":"..."}}.
func fieldMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
