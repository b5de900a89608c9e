package translation

import (
	"errors"
	"strings"
)

// ErrEmptyResult indicates the backend answered but produced no usable text.
var ErrEmptyResult = errors.New("translation failed or returned empty")

// Extract trims the raw completion and rejects blank output.
func Extract(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
