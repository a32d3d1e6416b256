// Package config holds runtime configuration parsed from the environment
// and the optional custom-attribute definitions file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds engine and transport settings from environment variables.
type Config struct {
	// HTTPAddr is the bind address for the query API.
	HTTPAddr string `env:"COROVIZ_HTTP_ADDR" envDefault:":8080"`
	// RedisURL enables the Redis Streams event source when set.
	RedisURL string `env:"COROVIZ_REDIS_URL" envDefault:""`
	// RedisStream is the stream key tailed for events.
	RedisStream string `env:"COROVIZ_REDIS_STREAM" envDefault:"coroviz:events"`
	// LogLevel is a zerolog level name.
	LogLevel string `env:"COROVIZ_LOG_LEVEL" envDefault:"info"`
	// AttributesFile points at a YAML file of custom span attribute
	// definitions evaluated per coroutine.
	AttributesFile string `env:"COROVIZ_ATTRIBUTES_FILE" envDefault:""`
	// ExportTraces enables the OTLP span exporter.
	ExportTraces bool `env:"COROVIZ_EXPORT_TRACES" envDefault:"false"`
}

// Parse reads the engine configuration from environment variables.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
