package config

import (
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")
	t.Setenv("INTAKE_CHANNEL", "WebSocket")
	t.Setenv("INTAKE_SETTLE_DELAY", "400")

	cfg := FromEnv()
	if cfg.APIKey != "fallback-key" {
		t.Errorf("APIKey = %q, want fallback-key", cfg.APIKey)
	}
	if cfg.Channel != "websocket" {
		t.Errorf("Channel = %q, want websocket", cfg.Channel)
	}
	if cfg.SettleDelay != 400*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 400ms", cfg.SettleDelay)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want time.Duration
	}{
		{"unset", "", time.Second},
		{"go duration", "1.5s", 1500 * time.Millisecond},
		{"millis", "250", 250 * time.Millisecond},
		{"garbage", "soon", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.val)
			if got := getEnvDuration("TEST_DURATION", time.Second); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := Config{Channel: "genai", Capture: "malgo"}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"websocket channel", func(c *Config) { c.Channel = "websocket" }, false},
		{"unknown channel", func(c *Config) { c.Channel = "carrier-pigeon" }, true},
		{"rtp capture", func(c *Config) { c.Capture = "rtp" }, false},
		{"unknown capture", func(c *Config) { c.Capture = "tape" }, true},
		{"negative settle", func(c *Config) { c.SettleDelay = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
