package channel

import (
	"log/slog"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultModel        = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice        = "Kore"
	DefaultLiveURL      = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultTimeout      = 10 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	DefaultEventBuffer  = 256
)

// Config holds transport configuration shared by the dialers.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the Live model name, with or without the "models/" prefix.
	Model string

	// BaseURL overrides the Live websocket endpoint (WSDialer only).
	BaseURL string

	// Timeout bounds the handshake.
	Timeout time.Duration

	// ReadTimeout, when positive, fails the session if nothing arrives for
	// that long. Zero relies on the service's own keep-alive.
	ReadTimeout time.Duration

	// WriteTimeout bounds every outbound message.
	WriteTimeout time.Duration

	// EventBuffer is the capacity of the Events channel.
	EventBuffer int

	// HTTPClient is used by the SDK transport.
	HTTPClient *http.Client

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Model:        DefaultModel,
		BaseURL:      DefaultLiveURL,
		Timeout:      DefaultTimeout,
		WriteTimeout: DefaultWriteTimeout,
		EventBuffer:  DefaultEventBuffer,
		Logger:       slog.Default(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	return nil
}

// Option is a functional option for configuring a dialer.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithBaseURL overrides the websocket endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithTimeout sets the handshake timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithReadTimeout sets the idle read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

// WithHTTPClient sets the HTTP client used by the SDK transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Apply applies options to a config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
