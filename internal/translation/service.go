package translation

import (
	"context"
	"errors"
	"log/slog"

	"polyglot/internal/models"
	"polyglot/internal/provider"
)

const (
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.2

	logPreviewRunes = 50
)

// Options fixes the generation parameters sent with every completion.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Service runs the translation pipeline against one backend. It holds no per-request
// state and may be shared by concurrent requests.
type Service struct {
	backend provider.Provider
	opts    Options
	logger  *slog.Logger
}

// NewService constructs a Service. A nil logger falls back to slog.Default.
func NewService(backend provider.Provider, opts Options, logger *slog.Logger) (*Service, error) {
	if backend == nil {
		return nil, errors.New("backend provider must not be nil")
	}
	if opts.Model == "" {
		return nil, errors.New("model must not be empty")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		backend: backend,
		opts:    opts,
		logger:  logger,
	}, nil
}

// Translate validates the input, asks the backend for a translation and extracts the text.
// It stops at the first failing stage.
func (s *Service) Translate(ctx context.Context, sentence, targetLanguage any) Outcome {
	req, vErr := Validate(sentence, targetLanguage)
	if vErr != nil {
		s.logger.Debug("translation rejected", "field", vErr.Field)
		return invalidInput(vErr)
	}

	s.logger.Info("translation requested",
		"sentence", preview(req.Sentence),
		"target_language", req.TargetLanguage,
	)

	raw, outcome, ok := s.complete(ctx, BuildPrompt(req))
	if !ok {
		return outcome
	}

	text, err := Extract(raw)
	if err != nil {
		s.logger.Warn("translation returned empty", "target_language", req.TargetLanguage)
		return emptyResult()
	}
	return succeeded(text)
}

// complete performs the single backend call and classifies its failure, if any.
func (s *Service) complete(ctx context.Context, messages []models.Message) (string, Outcome, bool) {
	resp, err := s.backend.Chat(ctx, models.ChatRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		if apiErr, ok := provider.AsAPIError(err); ok {
			s.logger.Warn("backend rejected translation",
				"provider", s.backend.Name(),
				"status", apiErr.Status,
				"type", apiErr.Type,
				"message", apiErr.Message,
			)
			return "", backendFailure(apiErr.Status, apiErr.Message, err), false
		}
		s.logger.Error("translation failed", "provider", s.backend.Name(), "err", err)
		return "", unexpectedFailure(err), false
	}
	if resp == nil {
		s.logger.Error("translation failed", "provider", s.backend.Name(), "err", provider.ErrNoChoices)
		return "", unexpectedFailure(provider.ErrNoChoices), false
	}
	s.logCompletion(resp)
	return resp.Content, Outcome{}, true
}

func (s *Service) logCompletion(resp *models.ChatResponse) {
	attrs := []any{
		"provider", s.backend.Name(),
		"id", resp.ID,
		"finish_reason", resp.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens,
	}
	if truncated(resp.FinishReason) {
		s.logger.Warn("translation truncated at max tokens", append(attrs, "max_tokens", s.opts.MaxTokens)...)
		return
	}
	s.logger.Debug("backend completion", attrs...)
}

// truncated reports whether the backend stopped because it hit the token ceiling.
// OpenAI reports "length", Claude "max_tokens".
func truncated(finishReason string) bool {
	return finishReason == "length" || finishReason == "max_tokens"
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= logPreviewRunes {
		return s
	}
	return string(runes[:logPreviewRunes]) + "..."
}
