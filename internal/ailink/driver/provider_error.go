package driver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const maxProviderMessage = 200

// ProviderError is returned when the API answers with a non-2xx status.
//
// RawResponse holds the response body bytes and must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

// NewProviderError builds a ProviderError, pulling the message out of a JSON
// error body when the API sent one.
func NewProviderError(provider string, status int, body []byte) *ProviderError {
	return &ProviderError{
		Provider:    provider,
		StatusCode:  status,
		Message:     providerMessage(body),
		RawResponse: body,
	}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// Retryable reports whether sending the same request again may succeed.
func (e *ProviderError) Retryable() bool {
	return e != nil && RetryableStatus(e.StatusCode)
}

// RetryableStatus is true for throttling, request timeouts and server errors.
// Zero means no status was received and is treated as retryable.
func RetryableStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// providerMessage accepts {"error":"..."}, {"error":{"message":"..."}} and
// {"detail":"..."} bodies, falling back to the trimmed raw text.
func providerMessage(body []byte) string {
	var parsed struct {
		Error  json.RawMessage `json:"error"`
		Detail string          `json:"detail"`
	}
	msg := ""
	if err := json.Unmarshal(body, &parsed); err == nil {
		var nested struct {
			Message string `json:"message"`
		}
		var flat string
		switch {
		case json.Unmarshal(parsed.Error, &flat) == nil && flat != "":
			msg = flat
		case json.Unmarshal(parsed.Error, &nested) == nil && nested.Message != "":
			msg = nested.Message
		case parsed.Detail != "":
			msg = parsed.Detail
		}
	}
	if msg == "" {
		msg = string(body)
	}
	msg = strings.Join(strings.Fields(msg), " ")
	if runes := []rune(msg); len(runes) > maxProviderMessage {
		msg = string(runes[:maxProviderMessage]) + "..."
	}
	if msg == "" {
		msg = "empty response body"
	}
	return msg
}
