// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// At least one stream identifier is required; use ValidateTargetReady.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Stream target (one of these identifies the stream; precedence
	// handle > channel id > live id)
	Handle    string
	ChannelID string
	LiveID    string

	// Polling
	PollInterval time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffCap   time.Duration

	// Protocol trace capture
	TracePayloads bool
	TraceFile     string

	// Database (empty disables the archive)
	DBDsn string

	// HTTP API
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't
// fail if the stream target is missing; use ValidateTargetReady() when
// you require polling. An empty DB_DSN disables the archive.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Handle = os.Getenv("CHAT_HANDLE")
	cfg.ChannelID = os.Getenv("CHAT_CHANNEL_ID")
	cfg.LiveID = os.Getenv("CHAT_LIVE_ID")

	var err error
	if cfg.PollInterval, err = envDuration("POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffBase, err = envDuration("FETCH_BACKOFF_BASE", time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffCap, err = envDuration("FETCH_BACKOFF_CAP", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.MaxAttempts = 5
	if v := os.Getenv("FETCH_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid FETCH_MAX_ATTEMPTS: %q", v)
		}
		cfg.MaxAttempts = n
	}

	cfg.TracePayloads = os.Getenv("TRACE_PAYLOADS") == "1"
	cfg.TraceFile = os.Getenv("TRACE_FILE")
	if cfg.TraceFile == "" {
		cfg.TraceFile = "chattail-trace.ndjson"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateTargetReady checks that at least one stream identifier is set.
func (c *Config) ValidateTargetReady() error {
	if c.Handle == "" && c.ChannelID == "" && c.LiveID == "" {
		return fmt.Errorf("missing stream target: require one of CHAT_HANDLE, CHAT_CHANNEL_ID, CHAT_LIVE_ID")
	}
	return nil
}

// envDuration parses a duration environment variable with a default.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s (Go duration): %q", key, v)
	}
	return d, nil
}
