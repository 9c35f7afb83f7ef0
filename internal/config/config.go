// Package config loads process configuration for the intake commands from
// the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultModel        = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultReportModel  = "gemini-2.5-flash"
	DefaultHTTPAddr     = ":8080"
	DefaultRTPAddr      = ":5004"
	DefaultSettingsPath = "intake-settings.json"
	DefaultChannel      = "genai"
	DefaultCapture      = "malgo"
)

// Config is the process-level configuration for cmd/intake.
type Config struct {
	APIKey       string
	Model        string
	ReportModel  string
	Channel      string // genai | websocket
	Capture      string // malgo | rtp | mock
	RTPAddr      string
	HTTPAddr     string
	SettingsPath string
	RecordDir    string // empty disables call recording
	LogLevel     string

	GmailCredentials string
	GmailToken       string
	GmailSender      string

	SettleDelay time.Duration
}

// Load reads a .env file if present and then the environment.
// A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		APIKey:           firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		Model:            getEnv("INTAKE_MODEL", DefaultModel),
		ReportModel:      getEnv("INTAKE_REPORT_MODEL", DefaultReportModel),
		Channel:          strings.ToLower(getEnv("INTAKE_CHANNEL", DefaultChannel)),
		Capture:          strings.ToLower(getEnv("INTAKE_CAPTURE", DefaultCapture)),
		RTPAddr:          getEnv("INTAKE_RTP_ADDR", DefaultRTPAddr),
		HTTPAddr:         getEnv("INTAKE_HTTP_ADDR", DefaultHTTPAddr),
		SettingsPath:     getEnv("INTAKE_SETTINGS_PATH", DefaultSettingsPath),
		RecordDir:        os.Getenv("INTAKE_RECORD_DIR"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GmailCredentials: os.Getenv("INTAKE_GMAIL_CREDENTIALS"),
		GmailToken:       os.Getenv("INTAKE_GMAIL_TOKEN"),
		GmailSender:      os.Getenv("INTAKE_GMAIL_SENDER"),
		SettleDelay:      getEnvDuration("INTAKE_SETTLE_DELAY", 250*time.Millisecond),
	}
}

// Validate checks that the configuration can start the service.
func (c Config) Validate() error {
	switch c.Channel {
	case "genai", "websocket":
	default:
		return fmt.Errorf("config: unknown channel %q (want genai or websocket)", c.Channel)
	}
	switch c.Capture {
	case "malgo", "rtp", "mock":
	default:
		return fmt.Errorf("config: unknown capture %q (want malgo, rtp or mock)", c.Capture)
	}
	if c.SettleDelay < 0 {
		return errors.New("config: settle delay must be non-negative")
	}
	return nil
}

// GmailEnabled reports whether follow-up email can be sent through Gmail.
func (c Config) GmailEnabled() bool {
	return c.GmailCredentials != "" && c.GmailToken != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare integers are milliseconds.
	if ms := getEnvInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
