package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ReadingsPath    string
	MetadataPath    string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ReadingsTTL bounds how stale a readings snapshot may get before the
	// store reloads it. Metadata is loaded once and never expires.
	ReadingsTTL   time.Duration
	DefaultBucket domain.Bucket
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := positiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	readingsTTL, err := positiveDuration("READINGS_TTL", "1h")
	if err != nil {
		return nil, err
	}

	bucketCode := envOrDefault("DEFAULT_BUCKET", "1h")
	bucket, err := domain.ParseBucket(bucketCode)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_BUCKET: %w", err)
	}
	if bucket == domain.BucketUnset {
		return nil, errors.New("DEFAULT_BUCKET is required")
	}

	cfg := &Config{
		ReadingsPath:    envOrDefault("READINGS_PATH", "data/sample/readings.csv"),
		MetadataPath:    envOrDefault("METADATA_PATH", "data/sample/metadata.csv"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		ReadingsTTL:     readingsTTL,
		DefaultBucket:   bucket,
	}

	return cfg, nil
}

// envOrDefault returns the value of key, or def when the variable is unset
// or empty.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// positiveDuration parses key as a Go duration and requires it to be > 0.
func positiveDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}
