package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/seqmap/internal/tracing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Equal(t, "seqmap.yaml", d.Manifest)
	require.Equal(t, OutputTable, d.Output)
	require.Equal(t, "debug", d.Log.Level)
	require.False(t, d.Tracing.Enabled)
	require.Equal(t, tracing.ExporterFile, d.Tracing.Exporter)
	require.Equal(t, 30*time.Minute, d.Cache.CleanupInterval)
	require.Equal(t, 200*time.Millisecond, d.Watch.Debounce)
	require.NoError(t, d.Validate())
}

func TestDefaultTracesFilePath(t *testing.T) {
	path := DefaultTracesFilePath()
	if path == "" {
		t.Skip("no home directory")
	}
	require.True(t, strings.HasSuffix(path, filepath.Join(".config", "seqmap", "traces", "traces.jsonl")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty output", mutate: func(c *Config) { c.Output = "" }},
		{name: "json output", mutate: func(c *Config) { c.Output = OutputJSON }},
		{name: "bad output", mutate: func(c *Config) { c.Output = "xml" }, wantErr: "output"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.SingletonTTL = -time.Second }, wantErr: "singleton_ttl"},
		{name: "negative cleanup", mutate: func(c *Config) { c.Cache.CleanupInterval = -time.Second }, wantErr: "cleanup_interval"},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.Debounce = -time.Second }, wantErr: "debounce"},
		{name: "sample rate above one", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: "sample_rate"},
		{name: "sample rate below zero", mutate: func(c *Config) { c.Tracing.SampleRate = -0.1 }, wantErr: "sample_rate"},
		{name: "bad exporter", mutate: func(c *Config) { c.Tracing.Exporter = "zipkin" }, wantErr: "exporter"},
		{
			name: "enabled file without path",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.FilePath = ""
			},
			wantErr: "file_path",
		},
		{
			name: "disabled file without path",
			mutate: func(c *Config) {
				c.Tracing.FilePath = ""
			},
		},
		{
			name: "enabled otlp without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = tracing.ExporterOTLP
				c.Tracing.OTLPEndpoint = ""
			},
			wantErr: "otlp_endpoint",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Tracing.FilePath = "/tmp/traces.jsonl"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_TemplateRoundTrip(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "seqmap.yaml", cfg.Manifest)
	require.Equal(t, OutputTable, cfg.Output)
	require.Equal(t, 30*time.Minute, cfg.Cache.CleanupInterval)
	require.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.Equal(t, tracing.DefaultServiceName, cfg.Tracing.ServiceName)
	require.NotEmpty(t, cfg.Tracing.FilePath, "commented file_path falls back to the default")
}

func TestLoad_OverridesAndValidation(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("output: json\nprofiles: [Dog, Cat]\nwatch:\n  debounce: 1s\n")))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, OutputJSON, cfg.Output)
	require.Equal(t, []string{"Dog", "Cat"}, cfg.Profiles)
	require.Equal(t, time.Second, cfg.Watch.Debounce)

	v.Set("output", "xml")
	_, err = Load(v)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
