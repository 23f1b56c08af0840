package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv removes every variable this package reads so defaults apply
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"SERVER_WS_URL", "ADVICE_BASE_URL",
		"SAMPLE_RATE", "FRAME_SIZE", "CHANNELS", "FRAME_QUEUE_SIZE",
		"ACCEPT_PARTIALS", "ADVICE_INTERVAL_SEC", "ADVICE_SKIP_EMPTY",
		"HTTP_TIMEOUT_SEC", "BREAKER_MAX_FAILURES", "BREAKER_RESET_TIMEOUT",
		"OPS_PORT", "LOG_LEVEL", "LOG_PRETTY", "METRICS_ENABLED",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.ServerWSURL != "ws://localhost:8000/ws/audio" {
		t.Errorf("Unexpected default SERVER_WS_URL: %s", cfg.ServerWSURL)
	}
	if cfg.AdviceBaseURL != "http://localhost:8000" {
		t.Errorf("Unexpected default ADVICE_BASE_URL: %s", cfg.AdviceBaseURL)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default sample rate 16000, got %d", cfg.SampleRate)
	}
	if cfg.FrameSize != 4096 {
		t.Errorf("Expected default frame size 4096, got %d", cfg.FrameSize)
	}
	if cfg.Channels != 1 {
		t.Errorf("Expected default channels 1, got %d", cfg.Channels)
	}
	if cfg.AdviceIntervalSec != 20 {
		t.Errorf("Expected default advice interval 20s, got %d", cfg.AdviceIntervalSec)
	}
	if !cfg.AdviceSkipEmpty {
		t.Error("Expected empty-transcript ticks skipped by default")
	}
	if cfg.AcceptPartials {
		t.Error("Expected final-only transcript policy by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVER_WS_URL", "wss://example.com/ws/audio")
	os.Setenv("ADVICE_INTERVAL_SEC", "5")
	os.Setenv("ACCEPT_PARTIALS", "true")
	os.Setenv("LOG_LEVEL", "debug")
	defer clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.ServerWSURL != "wss://example.com/ws/audio" {
		t.Errorf("Expected override to apply, got %s", cfg.ServerWSURL)
	}
	if cfg.AdviceIntervalSec != 5 {
		t.Errorf("Expected advice interval 5, got %d", cfg.AdviceIntervalSec)
	}
	if cfg.AdviceInterval() != 5*time.Second {
		t.Errorf("Expected AdviceInterval 5s, got %v", cfg.AdviceInterval())
	}
	if !cfg.AcceptPartials {
		t.Error("Expected permissive transcript policy when ACCEPT_PARTIALS=true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty ws url", func(c *Config) { c.ServerWSURL = "" }},
		{"empty advice url", func(c *Config) { c.AdviceBaseURL = "" }},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative frame size", func(c *Config) { c.FrameSize = -1 }},
		{"stereo channels", func(c *Config) { c.Channels = 2 }},
		{"zero advice interval", func(c *Config) { c.AdviceIntervalSec = 0 }},
		{"zero frame queue", func(c *Config) { c.FrameQueueSize = 0 }},
	}

	for _, tc := range cases {
		clearEnv(t)
		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("%s: LoadFromEnv failed: %v", tc.name, err)
		}
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("VOICE_CLIENT_TEST_KEY", "value")
	defer os.Unsetenv("VOICE_CLIENT_TEST_KEY")

	if got := GetEnv("VOICE_CLIENT_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("Expected value, got %s", got)
	}
	if got := GetEnv("VOICE_CLIENT_MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}
}
