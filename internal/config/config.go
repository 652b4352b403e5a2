// Package config provides configuration types, defaults and validation for
// the seqmap CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/internal/tracing"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputPlain = "plain"
)

// Config holds all configuration options for seqmap.
type Config struct {
	Manifest string         `mapstructure:"manifest"`
	Profiles []string       `mapstructure:"profiles"` // profiles resolved when none are given
	Output   string         `mapstructure:"output"`
	NoColor  bool           `mapstructure:"no_color"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  tracing.Config `mapstructure:"tracing"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"`
}

// CacheConfig controls the singleton cache of the lookup container.
type CacheConfig struct {
	SingletonTTL    time.Duration `mapstructure:"singleton_ttl"` // 0 keeps singletons forever
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// WatchConfig controls `seqmap watch`.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// DefaultTracesFilePath returns ~/.config/seqmap/traces/traces.jsonl, or an
// empty string when the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "seqmap", "traces", "traces.jsonl")
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Manifest: "seqmap.yaml",
		Output:   OutputTable,
		Log: LogConfig{
			Path:  "debug.log",
			Level: "debug",
		},
		Tracing: tc,
		Cache: CacheConfig{
			CleanupInterval: 30 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// SetDefaults registers Defaults with v so that unset keys fall back to them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("profiles", d.Profiles)
	v.SetDefault("output", d.Output)
	v.SetDefault("no_color", d.NoColor)
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("cache.singleton_ttl", d.Cache.SingletonTTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg for errors. Empty values that have defaults are valid.
func (c Config) Validate() error {
	switch c.Output {
	case "", OutputTable, OutputJSON, OutputPlain:
	default:
		return fmt.Errorf("%w: output must be %q, %q or %q, got %q", ErrInvalidConfig, OutputTable, OutputJSON, OutputPlain, c.Output)
	}
	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
		}
	}
	if c.Cache.SingletonTTL < 0 {
		return fmt.Errorf("%w: cache.singleton_ttl must not be negative", ErrInvalidConfig)
	}
	if c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("%w: cache.cleanup_interval must not be negative", ErrInvalidConfig)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks the tracing section.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0 || tc.SampleRate > 1 {
		return fmt.Errorf("%w: tracing.sample_rate must be between 0.0 and 1.0, got %v", ErrInvalidConfig, tc.SampleRate)
	}
	switch tc.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("%w: tracing.exporter must be none, file, stdout or otlp, got %q", ErrInvalidConfig, tc.Exporter)
	}
	if !tc.Enabled {
		return nil
	}
	if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
		return fmt.Errorf("%w: tracing.file_path is required when exporter is file", ErrInvalidConfig)
	}
	if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
		return fmt.Errorf("%w: tracing.otlp_endpoint is required when exporter is otlp", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as commented YAML.
func DefaultConfigTemplate() string {
	return `# seqmap configuration

# Manifest declaring components and sequences
manifest: seqmap.yaml

# Profiles resolved when a command is given none
# profiles: [Dog]

# Output format: table, json or plain
output: table

# Disable colours in table output
no_color: false

# Debug log (also enabled by --debug or SEQMAP_DEBUG=1)
log:
  enabled: false
  path: debug.log
  level: debug          # debug, info, warn or error

# OpenTelemetry tracing of view enumerations and lookups
tracing:
  enabled: false
  exporter: file        # none, file, stdout or otlp
  # file_path: ~/.config/seqmap/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: seqmap

# Singleton instances of the lookup container
cache:
  singleton_ttl: 0s     # 0s keeps singletons for the life of the process
  cleanup_interval: 30m

# seqmap watch
watch:
  debounce: 200ms
`
}

// WriteDefaultConfig writes DefaultConfigTemplate to configPath, creating
// parent directories.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
