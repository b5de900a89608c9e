package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"polyglot/internal/models"
)

// ErrNoChoices indicates a successful backend response that carried no completion at all.
var ErrNoChoices = errors.New("backend response did not include a completion")

// Provider defines the behaviour required of a completion backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// APIError is a structured failure reported by the backend itself.
// Status and Message are the backend's own values and are never rewritten.
type APIError struct {
	Provider string
	Status   int
	Message  string
	Type     string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s error %d (%s): %s", e.Provider, e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, e.Message)
}

// AsAPIError reports whether err wraps an *APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// FallbackMessage is used when the backend error body carries no message.
func FallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%d %s", status, text)
	}
	return fmt.Sprintf("%d status code (no body)", status)
}
