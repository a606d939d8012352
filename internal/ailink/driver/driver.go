package driver

import (
	"context"
	"errors"
)

// Driver defines the interface for chat-completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "perplexity").
	Name() string
}

// ErrMalformedResponse is wrapped by drivers when a 2xx body cannot be used.
var ErrMalformedResponse = errors.New("malformed response")

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage returns a user-role message.
func UserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
	Metadata    map[string]string
}

// Response is a provider-agnostic completion response.
type Response struct {
	ID           string
	Model        string
	Content      string
	Citations    []string
	FinishReason string
	Usage        *Usage
}
