package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bookyhq/booksync/library"
	"github.com/bookyhq/booksync/observe"
)

// Config is the top-level booksync.yaml structure. Durations are
// whole seconds in YAML; use Timeout and Staleness for the converted
// values.
type Config struct {
	// BaseURL is the backend API root, e.g. "https://api.example.com/api".
	BaseURL string `yaml:"base_url"`

	// TimeoutSec is the per-request HTTP timeout in seconds. Default 30.
	TimeoutSec int `yaml:"timeout_sec"`

	// Token optionally seeds the session credential, typically via
	// "${BOOKSYNC_TOKEN}".
	Token string `yaml:"token,omitempty"`

	// FenceMutations enables the in-flight guard that rejects a
	// duplicate mutation on the same entity while one is pending.
	// Default true.
	FenceMutations *bool `yaml:"fence_mutations,omitempty"`

	// StalenessSec overrides per-family staleness windows in seconds,
	// keyed by family name. Unlisted families keep their defaults.
	StalenessSec map[string]int `yaml:"staleness_sec,omitempty"`

	// Observe configures telemetry.
	Observe ObserveConfig `yaml:"observe"`
}

// ObserveConfig mirrors observe.Config in YAML form.
type ObserveConfig struct {
	Tracing struct {
		Enabled   bool    `yaml:"enabled"`
		Exporter  string  `yaml:"exporter"`
		SamplePct float64 `yaml:"sample_pct"`
	} `yaml:"tracing"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"`
	} `yaml:"metrics"`
	Logging struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	cfg := Config{
		TimeoutSec: 30,
	}
	cfg.Observe.Logging.Enabled = true
	cfg.Observe.Logging.Level = "info"
	return cfg
}

// LoadFile reads, expands, parses, and validates a YAML config file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML config data. ${VAR} references are
// expanded from the environment first; a referenced-but-unset
// variable is an error rather than a silent empty string.
func Parse(data []byte) (Config, error) {
	expanded, err := expandEnv(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("config: base_url %q must be http(s)", c.BaseURL)
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("config: timeout_sec must not be negative")
	}
	for family, sec := range c.StalenessSec {
		if sec < 0 {
			return fmt.Errorf("config: staleness_sec for family %q must not be negative", family)
		}
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// Staleness returns the per-family staleness windows: the library
// defaults with YAML overrides applied on top.
func (c Config) Staleness() map[string]time.Duration {
	merged := library.StaleDefaults()
	for family, sec := range c.StalenessSec {
		merged[family] = time.Duration(sec) * time.Second
	}
	return merged
}

// Fencing reports whether duplicate in-flight mutations are rejected.
func (c Config) Fencing() bool {
	if c.FenceMutations == nil {
		return true
	}
	return *c.FenceMutations
}

// ObserverConfig converts the YAML telemetry section into the
// observe package's config.
func (c Config) ObserverConfig(serviceName, version string) observe.Config {
	return observe.Config{
		ServiceName: serviceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.Tracing.Enabled,
			Exporter:  c.Observe.Tracing.Exporter,
			SamplePct: c.Observe.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.Metrics.Enabled,
			Exporter: c.Observe.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Observe.Logging.Enabled,
			Level:   c.Observe.Logging.Level,
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv expands ${VAR} references, erroring on unset variables.
// $$ emits a literal $.
func expandEnv(s string) (string, error) {
	const dollarSentinel = "\x00BOOKSYNC_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(keys, ", "))
	}

	s = envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(m)[1])
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
