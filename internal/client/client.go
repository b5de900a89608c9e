package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	contentTypeJSON = "application/json"
	translatePath   = "/api/translate-text"
	maxResponseBody = 1 << 20
	defaultTimeout  = 90 * time.Second
)

// Error is a non-200 answer from the translate endpoint.
type Error struct {
	Status  int
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("translate failed with status %d: %s", e.Status, e.Message)
}

// Client submits sentences to a running translation server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a client. A nil httpClient gets a default with a bounded timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("server url must not be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

type translateRequest struct {
	Sentence       string `json:"sentence"`
	TargetLanguage string `json:"targetLanguage"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
	Code           int    `json:"code"`
}

// Translate asks the server to translate sentence into targetLanguage.
func (c *Client) Translate(ctx context.Context, sentence, targetLanguage string) (string, error) {
	payload, err := json.Marshal(translateRequest{Sentence: sentence, TargetLanguage: targetLanguage})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+translatePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("construct request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read translate response: %w", err)
	}

	var decoded translateResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode != http.StatusOK {
		message := decoded.Error
		if decodeErr != nil || message == "" {
			message = "Failed to translate sentence."
		}
		return "", &Error{Status: resp.StatusCode, Message: message, Code: decoded.Code}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode translate response: %w", decodeErr)
	}
	return decoded.TranslatedText, nil
}
