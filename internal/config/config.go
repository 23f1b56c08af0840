package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice client
type Config struct {
	// Streaming transport configuration
	ServerWSURL   string `envconfig:"SERVER_WS_URL" default:"ws://localhost:8000/ws/audio"`
	AdviceBaseURL string `envconfig:"ADVICE_BASE_URL" default:"http://localhost:8000"`

	// Audio capture configuration. The server expects PCM16LE mono at 16kHz,
	// framed as 4096 samples per buffer.
	SampleRate int `envconfig:"SAMPLE_RATE" default:"16000"`
	FrameSize  int `envconfig:"FRAME_SIZE" default:"4096"`
	Channels   int `envconfig:"CHANNELS" default:"1"`

	// Bounded queue between the capture callback and the transport pump.
	// Frames arriving while it is full are dropped, never buffered further.
	FrameQueueSize int `envconfig:"FRAME_QUEUE_SIZE" default:"16"`

	// Transcript assembly policy. When false, only final fragments are
	// appended to the transcript; partials are discarded.
	AcceptPartials bool `envconfig:"ACCEPT_PARTIALS" default:"false"`

	// Advice polling configuration
	AdviceIntervalSec int  `envconfig:"ADVICE_INTERVAL_SEC" default:"20"`
	AdviceSkipEmpty   bool `envconfig:"ADVICE_SKIP_EMPTY" default:"true"`
	HTTPTimeoutSec    int  `envconfig:"HTTP_TIMEOUT_SEC" default:"15"`

	// Circuit breaker for the advisory endpoint
	BreakerMaxFailures     int `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerResetTimeoutSec int `envconfig:"BREAKER_RESET_TIMEOUT" default:"30"` // seconds

	// Observability configuration
	OpsPort        string `envconfig:"OPS_PORT" default:"8090"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`   // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"` // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks constraints that envconfig tags cannot express
func (c *Config) Validate() error {
	if c.ServerWSURL == "" {
		return fmt.Errorf("SERVER_WS_URL is required")
	}
	if c.AdviceBaseURL == "" {
		return fmt.Errorf("ADVICE_BASE_URL is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("FRAME_SIZE must be positive, got %d", c.FrameSize)
	}
	if c.Channels != 1 {
		return fmt.Errorf("CHANNELS must be 1 (mono), got %d", c.Channels)
	}
	if c.AdviceIntervalSec <= 0 {
		return fmt.Errorf("ADVICE_INTERVAL_SEC must be positive, got %d", c.AdviceIntervalSec)
	}
	if c.FrameQueueSize <= 0 {
		return fmt.Errorf("FRAME_QUEUE_SIZE must be positive, got %d", c.FrameQueueSize)
	}
	return nil
}

// AdviceInterval returns the advice polling interval as a duration
func (c *Config) AdviceInterval() time.Duration {
	return time.Duration(c.AdviceIntervalSec) * time.Second
}

// HTTPTimeout returns the advisory HTTP client timeout as a duration
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// BreakerResetTimeout returns the circuit breaker reset timeout as a duration
func (c *Config) BreakerResetTimeout() time.Duration {
	return time.Duration(c.BreakerResetTimeoutSec) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
