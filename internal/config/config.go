package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the exporter settings. Loaded once at startup, immutable after.
type Config struct {
	// CacheDuration is the freshness window in seconds for measurement
	// results. 0 disables caching and every scrape runs a new measurement.
	CacheDuration int `yaml:"cache_duration"`

	// ServerID selects a specific speedtest server. Empty means auto-select.
	ServerID string `yaml:"server_id"`

	// Timeout is the wall-clock limit in seconds for a measurement run.
	Timeout int `yaml:"timeout"`

	// Port is the HTTP listen port.
	Port int `yaml:"port"`
}

func defaultConfig() *Config {
	return &Config{
		CacheDuration: 0,
		Timeout:       90,
		Port:          9798,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// SPEEDTEST_* environment variables, in increasing order of precedence.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("SPEEDTEST_CACHE_DURATION"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPEEDTEST_CACHE_DURATION: %w", err)
		}
		cfg.CacheDuration = n
	}

	if v, ok := os.LookupEnv("SPEEDTEST_SERVER_ID"); ok {
		cfg.ServerID = v
	}

	if v, ok := os.LookupEnv("SPEEDTEST_TIMEOUT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPEEDTEST_TIMEOUT: %w", err)
		}
		cfg.Timeout = n
	}

	if v, ok := os.LookupEnv("SPEEDTEST_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPEEDTEST_PORT: %w", err)
		}
		cfg.Port = n
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.CacheDuration < 0 {
		return fmt.Errorf("cache duration must not be negative, got %d", cfg.CacheDuration)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0, got %d", cfg.Timeout)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	return nil
}
