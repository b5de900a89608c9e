package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	APIStyleOpenAI = "openai"
	APIStyleClaude = "claude"
)

const (
	defaultPort        = 3000
	defaultOpenAIURL   = "https://api.openai.com/v1"
	defaultClaudeURL   = "https://api.anthropic.com"
	defaultOpenAIModel = "gpt-4o"
	defaultClaudeModel = "claude-3-5-sonnet-latest"
	defaultTimeout     = 60 * time.Second
	defaultMaxTokens   = 500
	defaultTemperature = 0.2
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultLogMaxSize  = 100
	defaultLogBackups  = 3
	defaultLogMaxAge   = 28
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BackendConfig captures authentication, routing and generation parameters for the
// completion backend.
type BackendConfig struct {
	APIStyle    string        `yaml:"api_style"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature *float64      `yaml:"temperature"`
	Headers     Headers       `yaml:"headers"`
}

// Headers contains additional HTTP headers to send with a backend request.
type Headers map[string]string

// LogConfig selects the slog handler and an optional rotating file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads YAML configuration from disk, applies defaults and environment overrides, and
// validates the result. An empty path skips the file and relies on defaults and environment.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("resolve config path: %w", err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv fills blank settings from the environment. Values in the file win.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if c.Server.Port == 0 {
		if raw := get("POLYGLOT_PORT"); raw != "" {
			port, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("POLYGLOT_PORT %q is not a number", raw)
			}
			c.Server.Port = port
		}
	}

	style := strings.ToLower(strings.TrimSpace(c.Backend.APIStyle))
	switch style {
	case APIStyleClaude:
		if c.Backend.APIKey == "" {
			c.Backend.APIKey = get("ANTHROPIC_API_KEY")
		}
	default:
		if c.Backend.APIKey == "" {
			c.Backend.APIKey = get("OPENAI_API_KEY")
		}
		if c.Backend.Model == "" {
			c.Backend.Model = get("OPENAI_MODEL")
		}
		if c.Backend.BaseURL == "" {
			c.Backend.BaseURL = get("OPENAI_BASE_URL")
		}
	}
	return nil
}

// ApplyDefaults sets every unset optional field to its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}

	c.Backend.APIStyle = strings.ToLower(strings.TrimSpace(c.Backend.APIStyle))
	if c.Backend.APIStyle == "" {
		c.Backend.APIStyle = APIStyleOpenAI
	}
	if c.Backend.BaseURL == "" {
		switch c.Backend.APIStyle {
		case APIStyleClaude:
			c.Backend.BaseURL = defaultClaudeURL
		default:
			c.Backend.BaseURL = defaultOpenAIURL
		}
	}
	if c.Backend.Model == "" {
		switch c.Backend.APIStyle {
		case APIStyleClaude:
			c.Backend.Model = defaultClaudeModel
		default:
			c.Backend.Model = defaultOpenAIModel
		}
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaultTimeout
	}
	if c.Backend.MaxTokens == 0 {
		c.Backend.MaxTokens = defaultMaxTokens
	}
	if c.Backend.Temperature == nil {
		t := defaultTemperature
		c.Backend.Temperature = &t
	}

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaultLogMaxSize
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaultLogBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = defaultLogMaxAge
	}
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	for _, origin := range c.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return errors.New("server.allowed_origins must not contain empty entries")
		}
	}

	if err := validateBackend(c.Backend); err != nil {
		return err
	}
	return validateLog(c.Log)
}

func validateBackend(backend BackendConfig) error {
	if err := validateAPIStyle(backend.APIStyle); err != nil {
		return err
	}
	if strings.TrimSpace(backend.APIKey) == "" {
		return fmt.Errorf("backend %s: api_key must be provided", backend.APIStyle)
	}
	if strings.TrimSpace(backend.BaseURL) == "" {
		return fmt.Errorf("backend %s: base_url must be provided", backend.APIStyle)
	}
	if strings.TrimSpace(backend.Model) == "" {
		return fmt.Errorf("backend %s: model must be provided", backend.APIStyle)
	}
	if backend.Timeout <= 0 {
		return fmt.Errorf("backend %s: timeout must be positive, got %s", backend.APIStyle, backend.Timeout)
	}
	if backend.MaxTokens <= 0 {
		return fmt.Errorf("backend %s: max_tokens must be positive, got %d", backend.APIStyle, backend.MaxTokens)
	}
	if backend.Temperature != nil && (*backend.Temperature < 0 || *backend.Temperature > 2) {
		return fmt.Errorf("backend %s: temperature must be between 0 and 2, got %g", backend.APIStyle, *backend.Temperature)
	}

	for headerKey := range backend.Headers {
		if !isCanonicalHTTPHeader(headerKey) {
			return fmt.Errorf("backend %s: header %q is not a valid canonical HTTP header", backend.APIStyle, headerKey)
		}
	}
	return nil
}

func validateAPIStyle(style string) error {
	switch style {
	case APIStyleOpenAI, APIStyleClaude:
		return nil
	default:
		return fmt.Errorf("backend api_style %q must be one of %q or %q", style, APIStyleOpenAI, APIStyleClaude)
	}
}

func validateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn or error", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", l.Format)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	return nil
}

func isCanonicalHTTPHeader(header string) bool {
	if header == "" {
		return false
	}

	for _, r := range header {
		if !(r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
