package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Stream    StreamConfig
	Upload    UploadConfig
	Samples   SamplesConfig
	Session   SessionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// UpstreamConfig holds MISO platform configuration. Keys are held
// server-side only; a missing key fails the owning endpoint, never the
// whole process.
type UpstreamConfig struct {
	BaseURL       string        `envconfig:"MISO_BASE_URL" default:"https://api.holdings.miso.gs/ext/v1"`
	TBMKey        string        `envconfig:"TBM_API_KEY"`
	EnergyNewsKey string        `envconfig:"ENERGYNEWS_API_KEY"`
	DesignRiskKey string        `envconfig:"DESIGNRISK_API_KEY"`
	UploadKey     string        `envconfig:"MISO_API_KEY"`
	UserID        string        `envconfig:"MISO_USER_ID" default:"slack_user"`
	Timeout       time.Duration `envconfig:"MISO_TIMEOUT" default:"60s"`
}

// StreamConfig paces the simulated character-by-character reveal of
// workflow results.
type StreamConfig struct {
	ChunkRunes int           `envconfig:"STREAM_CHUNK_RUNES" default:"12"`
	Delay      time.Duration `envconfig:"STREAM_DELAY" default:"40ms"`
}

// UploadConfig holds upload proxy limits.
type UploadConfig struct {
	MaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

// SamplesConfig holds the local sample-image gallery directory.
type SamplesConfig struct {
	Dir string `envconfig:"SAMPLE_IMAGES_DIR" default:"./public/sample-images"`
}

// SessionConfig controls session engine lifetime.
type SessionConfig struct {
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api.holdings.miso.gs/ext/v1",
			UserID:  "slack_user",
			Timeout: 60 * time.Second,
		},
		Stream: StreamConfig{
			ChunkRunes: 12,
			Delay:      40 * time.Millisecond,
		},
		Upload: UploadConfig{
			MaxBytes: 10 * 1024 * 1024,
		},
		Samples: SamplesConfig{
			Dir: "./public/sample-images",
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
