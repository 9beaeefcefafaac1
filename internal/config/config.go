// Package config loads settings from an optional YAML file, BYTEME_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/service"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. BYTEME_ENDPOINT.
const EnvPrefix = "BYTEME"

// StubEndpoint selects the in-process deterministic stub.
const StubEndpoint = "stub"

// Config holds the resolved settings.
type Config struct {
	Endpoint         string        `mapstructure:"endpoint"`
	Profile          string        `mapstructure:"profile"`
	MinDuration      time.Duration `mapstructure:"min_duration"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryMode        string        `mapstructure:"retry_mode"`
	Platform         Platform      `mapstructure:"platform"`
	Redact           bool          `mapstructure:"redact"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	CacheSize        int           `mapstructure:"cache_size"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
	Verbose          bool          `mapstructure:"verbose"`
}

// Platform describes accepted video URLs.
type Platform struct {
	Hosts      []string `mapstructure:"hosts"`
	PathMarker string   `mapstructure:"path_marker"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":     "endpoint",
	"profile":      "profile",
	"min-duration": "min_duration",
	"timeout":      "timeout",
	"retry-mode":   "retry_mode",
	"verbose":      "verbose",
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	rules := request.DefaultRules()
	v.SetDefault("endpoint", "http://localhost:8080")
	v.SetDefault("profile", "creator")
	v.SetDefault("min_duration", analysis.DefaultMinDuration)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("retry_mode", string(analysis.RetryRearm))
	v.SetDefault("platform.hosts", rules.Hosts)
	v.SetDefault("platform.path_marker", rules.PathMarker)
	v.SetDefault("redact", true)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("cache_size", 0)
	v.SetDefault("max_response_bytes", int64(service.DefaultMaxResponseBytes))
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds the known flags present in fs to their config keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config.BindFlags: %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file at path and returns the validated
// configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Endpoint == "" {
		problems = append(problems, "endpoint is required")
	}
	if c.Profile == "" {
		problems = append(problems, "profile is required")
	}
	if c.MinDuration < 0 {
		problems = append(problems, "min_duration must not be negative")
	}
	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if _, err := analysis.ParseRetryMode(c.RetryMode); err != nil {
		problems = append(problems, err.Error())
	}
	if c.RateLimit < 0 {
		problems = append(problems, "rate_limit must not be negative")
	}
	if c.CacheSize < 0 {
		problems = append(problems, "cache_size must not be negative")
	}
	if c.MaxResponseBytes < 0 {
		problems = append(problems, "max_response_bytes must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Stub reports whether the in-process stub is selected.
func (c *Config) Stub() bool {
	return strings.EqualFold(c.Endpoint, StubEndpoint)
}

// Rules returns the URL validation rules.
func (c *Config) Rules() request.Rules {
	return request.Rules{Hosts: c.Platform.Hosts, PathMarker: c.Platform.PathMarker}
}

// Mode returns the parsed retry mode. Call after Validate.
func (c *Config) Mode() analysis.RetryMode {
	mode, _ := analysis.ParseRetryMode(c.RetryMode)
	return mode
}
