package jsonp

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by clients and the echo server
type Config struct {
	Port           string
	Timeout        time.Duration
	MaxScriptBytes int64
	// Secret is the base64 signing key the echo server verifies against
	Secret string
}

// fileConfig mirrors Config in a YAML file; zero values leave the
// environment or defaults in place.
type fileConfig struct {
	Port           string `yaml:"port"`
	TimeoutMS      *int   `yaml:"timeout_ms"`
	MaxScriptBytes int64  `yaml:"max_script_bytes"`
	Secret         string `yaml:"secret"`
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Timeout in milliseconds, default 0 (no timeout)
	timeoutMS := 0
	if timeoutStr := os.Getenv("JSONP_TIMEOUT_MS"); timeoutStr != "" {
		if parsed, err := strconv.Atoi(timeoutStr); err == nil && parsed >= 0 {
			timeoutMS = parsed
		}
	}

	maxBytes := DefaultMaxScriptBytes
	if maxStr := os.Getenv("JSONP_MAX_SCRIPT_BYTES"); maxStr != "" {
		if parsed, err := strconv.ParseInt(maxStr, 10, 64); err == nil && parsed > 0 {
			maxBytes = parsed
		}
	}

	return Config{
		Port:           port,
		Timeout:        time.Duration(timeoutMS) * time.Millisecond,
		MaxScriptBytes: maxBytes,
		Secret:         os.Getenv("JSONP_SECRET"),
	}
}

// LoadConfigFile loads the environment configuration and overlays the
// YAML file at path on top of it.
func LoadConfigFile(path string) (Config, error) {
	cfg := LoadConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.TimeoutMS != nil && *fc.TimeoutMS >= 0 {
		cfg.Timeout = time.Duration(*fc.TimeoutMS) * time.Millisecond
	}
	if fc.MaxScriptBytes > 0 {
		cfg.MaxScriptBytes = fc.MaxScriptBytes
	}
	if fc.Secret != "" {
		cfg.Secret = fc.Secret
	}
	return cfg, nil
}

// ClientOptions turns the configuration into NewClient options.
func (c Config) ClientOptions() []Option {
	return []Option{
		WithTimeout(c.Timeout),
		WithLoader(&HTTPLoader{MaxBytes: c.MaxScriptBytes}),
	}
}
