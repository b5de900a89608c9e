package factory

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"polyglot/internal/config"
	"polyglot/internal/provider"
	claudeProvider "polyglot/internal/provider/claude"
	openaiProvider "polyglot/internal/provider/openai"
)

const (
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// New constructs the configured completion backend. The returned provider is safe for
// concurrent use and is meant to be built once at startup.
func New(cfg config.BackendConfig) (provider.Provider, error) {
	client := newHTTPClient(cfg.Timeout)

	switch cfg.APIStyle {
	case config.APIStyleOpenAI, "":
		p, err := openaiProvider.New(config.APIStyleOpenAI, cfg, client)
		if err != nil {
			return nil, fmt.Errorf("initialise openai provider: %w", err)
		}
		return p, nil
	case config.APIStyleClaude:
		p, err := claudeProvider.New(config.APIStyleClaude, cfg, client)
		if err != nil {
			return nil, fmt.Errorf("initialise claude provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported api_style %q", cfg.APIStyle)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
