package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel/attribute"
)

// OTELConfig carries the standard OTEL_* exporter settings the span bridge
// needs. Only the trace signal is read here; metrics are served by the
// Prometheus collector and logs by zerolog.
type OTELConfig struct {
	// ServiceName names the exported trace resource.
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"coroviz"`
	// ResourceAttributes is a comma-separated key=value list merged into
	// the trace resource.
	ResourceAttributes string `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:""`
	// ExporterEndpoint applies to every signal; TracesEndpoint overrides
	// it for traces.
	ExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TracesEndpoint   string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:""`
}

// ParseOTELConfig reads the exporter settings from environment variables.
func ParseOTELConfig() (*OTELConfig, error) {
	var cfg OTELConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	return &cfg, nil
}

// GetEndpoint resolves the traces endpoint. The traces-specific variable
// wins over the generic one, falling back to a local collector.
func (c *OTELConfig) GetEndpoint() string {
	for _, ep := range []string{c.TracesEndpoint, c.ExporterEndpoint} {
		if ep != "" {
			return ep
		}
	}
	return "localhost:4318"
}

// ParseResourceAttributes expands the key1=value1,key2=value2 list into
// attributes. Pairs without an equals sign and empty keys are skipped.
func (c *OTELConfig) ParseResourceAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, pair := range strings.Split(c.ResourceAttributes, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		attrs = append(attrs, attribute.String(key, strings.TrimSpace(value)))
	}
	return attrs
}
