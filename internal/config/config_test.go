package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "coroviz:events", cfg.RedisStream)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.ExportTraces)
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv("COROVIZ_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("COROVIZ_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("COROVIZ_REDIS_STREAM", "trace:stream")
	t.Setenv("COROVIZ_LOG_LEVEL", "debug")
	t.Setenv("COROVIZ_EXPORT_TRACES", "true")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "trace:stream", cfg.RedisStream)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ExportTraces)
}

func TestLoadAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attributes.yaml")
	content := `attributes:
  - name: team
    expr: 'split(label, "/")[0]'
  - name: busy
    expr: 'activeNs > 1000000'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	attrs, err := LoadAttributes(path)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "team", attrs[0].Name)
	assert.Equal(t, `split(label, "/")[0]`, attrs[0].Expression)
	assert.Equal(t, "busy", attrs[1].Name)
}

func TestLoadAttributes_EmptyPath(t *testing.T) {
	attrs, err := LoadAttributes("")
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestLoadAttributes_MissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attributes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attributes:\n  - name: lonely\n"), 0o644))

	_, err := LoadAttributes(path)
	assert.Error(t, err)
}

func TestLoadAttributes_MissingFile(t *testing.T) {
	_, err := LoadAttributes(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestOTELConfig_GetEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  OTELConfig
		want string
	}{
		{
			name: "traces endpoint wins",
			cfg:  OTELConfig{TracesEndpoint: "traces.example:4318", ExporterEndpoint: "generic.example:4318"},
			want: "traces.example:4318",
		},
		{
			name: "generic endpoint second",
			cfg:  OTELConfig{ExporterEndpoint: "generic.example:4318"},
			want: "generic.example:4318",
		},
		{
			name: "default last",
			cfg:  OTELConfig{},
			want: "localhost:4318",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.GetEndpoint())
		})
	}
}

func TestOTELConfig_ParseResourceAttributes(t *testing.T) {
	cfg := OTELConfig{ResourceAttributes: "env=prod,team=runtime"}

	attrs := cfg.ParseResourceAttributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "env", string(attrs[0].Key))
	assert.Equal(t, "prod", attrs[0].Value.AsString())

	assert.Nil(t, (&OTELConfig{}).ParseResourceAttributes())
}
