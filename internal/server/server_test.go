package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglot/internal/config"
	"polyglot/internal/models"
	"polyglot/internal/provider"
	"polyglot/internal/translation"
)

type stubProvider struct {
	calls    int
	mockChat func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	p.calls++
	return p.mockChat(ctx, req)
}

func testConfig() config.Config {
	cfg := config.Config{Backend: config.BackendConfig{APIKey: "sk-test"}}
	cfg.ApplyDefaults()
	return cfg
}

func newTestServer(t *testing.T, backend provider.Provider) *Server {
	t.Helper()
	svc, err := translation.NewService(backend, translation.Options{Model: "gpt-4o", MaxTokens: 500, Temperature: 0.2},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	srv, err := New(testConfig(), svc)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func replying(content string) *stubProvider {
	return &stubProvider{mockChat: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
		return &models.ChatResponse{Content: content}, nil
	}}
}

func TestTranslateSuccessTrimsOutput(t *testing.T) {
	backend := replying("  Hola  ")
	srv := newTestServer(t, backend)

	rec, body := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"Spanish"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"translatedText": "Hola"}, body)
	assert.Equal(t, 1, backend.calls)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestTranslateValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "missing sentence", body: `{"targetLanguage":"Spanish"}`, wantMsg: "sentence is required."},
		{name: "empty sentence", body: `{"sentence":"","targetLanguage":"Spanish"}`, wantMsg: "sentence is required."},
		{name: "numeric sentence", body: `{"sentence":12,"targetLanguage":"Spanish"}`, wantMsg: "sentence is required."},
		{name: "missing language", body: `{"sentence":"Hello"}`, wantMsg: "targetLanguage is required."},
		{name: "null language", body: `{"sentence":"Hello","targetLanguage":null}`, wantMsg: "targetLanguage is required."},
		{name: "malformed json", body: `{"sentence":`, wantMsg: "sentence is required."},
		{name: "empty body", body: ``, wantMsg: "sentence is required."},
		{name: "array body", body: `["Hello","Spanish"]`, wantMsg: "sentence is required."},
		{name: "null body", body: `null`, wantMsg: "sentence is required."},
		{name: "trailing data", body: `{"sentence":"Hello","targetLanguage":"Spanish"} {}`, wantMsg: "sentence is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubProvider{mockChat: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
				t.Fatal("backend must not be called for invalid input")
				return nil, nil
			}}
			srv := newTestServer(t, backend)

			rec, body := do(t, srv, http.MethodPost, "/api/translate-text", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"error": tt.wantMsg}, body)
			assert.Zero(t, backend.calls)
		})
	}
}

func TestTranslateForwardsBackendFailure(t *testing.T) {
	backend := &stubProvider{mockChat: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
		return nil, &provider.APIError{Provider: "stub", Status: http.StatusTooManyRequests, Message: "rate limited"}
	}}
	srv := newTestServer(t, backend)

	rec, body := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"Spanish"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, map[string]any{"error": "rate limited", "code": float64(429)}, body)
}

func TestTranslateEmptyResult(t *testing.T) {
	srv := newTestServer(t, replying(" \n "))

	rec, body := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"Spanish"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Translation failed or returned empty."}, body)
}

func TestTranslateUnexpectedFailureHidesCause(t *testing.T) {
	backend := &stubProvider{mockChat: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
		return nil, io.ErrUnexpectedEOF
	}}
	srv := newTestServer(t, backend)

	rec, body := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"Spanish"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Internal Server Error"}, body)
}

func TestTranslateSameRequestTwice(t *testing.T) {
	srv := newTestServer(t, replying("Bonjour"))

	_, first := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"French"}`)
	_, second := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"French"}`)

	assert.Equal(t, first, second)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, replying("x"))

	rec, body := do(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, body)
}

func TestFrameworkErrorsUseErrorShape(t *testing.T) {
	srv := newTestServer(t, replying("x"))

	rec, body := do(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"error": "Not Found"}, body)

	rec, body = do(t, srv, http.MethodGet, "/api/translate-text", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, map[string]any{"error": "Method Not Allowed"}, body)
}

func TestTrailingSlashIsAccepted(t *testing.T) {
	srv := newTestServer(t, replying("Hallo"))

	rec, body := do(t, srv, http.MethodPost, "/api/translate-text/", `{"sentence":"Hello","targetLanguage":"German"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hallo", body["translatedText"])
}

func TestCORSWhenOriginsConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	svc, err := translation.NewService(replying("x"), translation.Options{Model: "gpt-4o"}, nil)
	require.NoError(t, err)
	srv, err := New(cfg, svc)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/translate-text", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.Error(t, err)

	svc, err := translation.NewService(replying("x"), translation.Options{Model: "gpt-4o"}, nil)
	require.NoError(t, err)
	_, err = New(config.Config{}, svc)
	assert.Error(t, err)
}

func TestJSONErrorHandlerRejectsInvalidStatus(t *testing.T) {
	srv := newTestServer(t, replying("x"))
	rec := httptest.NewRecorder()
	c := srv.app.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	jsonErrorHandler(requestError{Status: 42, Message: "odd", Code: 42}, c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"odd","code":42}`, rec.Body.String())
}

func captureDefaultLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestAccessLogRecordsFailureStatus(t *testing.T) {
	tests := []struct {
		name       string
		backend    *stubProvider
		wantStatus string
	}{
		{
			name: "backend failure",
			backend: &stubProvider{mockChat: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
				return nil, &provider.APIError{Provider: "stub", Status: http.StatusTooManyRequests, Message: "rate limited"}
			}},
			wantStatus: "status=429",
		},
		{name: "empty result", backend: replying(" "), wantStatus: "status=500"},
		{
			name: "unexpected failure",
			backend: &stubProvider{mockChat: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
				return nil, io.ErrUnexpectedEOF
			}},
			wantStatus: "status=500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureDefaultLog(t)
			srv := newTestServer(t, tt.backend)

			rec, _ := do(t, srv, http.MethodPost, "/api/translate-text", `{"sentence":"Hello","targetLanguage":"Spanish"}`)
			require.NotEqual(t, http.StatusOK, rec.Code)

			var line string
			for _, l := range strings.Split(logs.String(), "\n") {
				if strings.Contains(l, "msg=request ") {
					line = l
				}
			}
			require.NotEmpty(t, line, logs.String())
			assert.Contains(t, line, tt.wantStatus)
			assert.NotContains(t, line, "error=<nil>")
		})
	}
}

func TestAccessLogRecordsValidationStatus(t *testing.T) {
	logs := captureDefaultLog(t)
	srv := newTestServer(t, replying("x"))

	rec, body := do(t, srv, http.MethodPost, "/api/translate-text", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": "sentence is required."}, body)
	assert.Contains(t, logs.String(), "status=400")
}

func TestWriteTimeoutCoversBackendTimeout(t *testing.T) {
	assert.Equal(t, minWriteTimeout, writeTimeoutFor(10*time.Second))
	assert.Equal(t, minWriteTimeout, writeTimeoutFor(60*time.Second))
	assert.Equal(t, 150*time.Second, writeTimeoutFor(2*time.Minute))
	assert.Greater(t, writeTimeoutFor(5*time.Minute), 5*time.Minute)
}
