// Package config provides unified configuration loading for the converter
// service. Supports YAML files, environment variables, and programmatic
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Response modes for transformation endpoints. JSON returns a summary with a
// download URL; binary streams the output bytes directly (the serverless
// deployment shape).
const (
	ResponseModeJSON   = "json"
	ResponseModeBinary = "binary"
)

// Config holds all configuration for the converter service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Transform     TransformConfig     `yaml:"transform"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	ResponseMode     string        `yaml:"response_mode"` // json or binary
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// StorageConfig holds transient store settings.
type StorageConfig struct {
	InboundDir     string        `yaml:"inbound_dir"`
	OutboundDir    string        `yaml:"outbound_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	Retention      time.Duration `yaml:"retention"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// TransformConfig holds transformation defaults.
type TransformConfig struct {
	DefaultDPI     int    `yaml:"default_dpi"`
	DefaultQuality string `yaml:"default_quality"` // low, medium, high
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			ResponseMode:     ResponseModeJSON,
			AllowedOrigins:   []string{"*"},
		},
		Storage: StorageConfig{
			InboundDir:     "./uploads",
			OutboundDir:    "./outputs",
			MaxUploadBytes: 50 * 1024 * 1024,
			Retention:      time.Hour,
			SweepInterval:  10 * time.Minute,
		},
		Transform: TransformConfig{
			DefaultDPI:     200,
			DefaultQuality: "medium",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ResponseMode != ResponseModeJSON && c.Server.ResponseMode != ResponseModeBinary {
		return fmt.Errorf("invalid response mode: %s", c.Server.ResponseMode)
	}

	if c.Storage.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if c.Storage.Retention < 0 {
		return fmt.Errorf("retention must not be negative")
	}

	if c.Transform.DefaultDPI < 36 || c.Transform.DefaultDPI > 600 {
		return fmt.Errorf("default_dpi must be between 36 and 600")
	}

	switch c.Transform.DefaultQuality {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("invalid default quality: %s", c.Transform.DefaultQuality)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("RESPONSE_MODE"); v != "" {
		cfg.Server.ResponseMode = v
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Storage.InboundDir = v
	}

	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Storage.OutboundDir = v
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.MaxUploadBytes = n
		}
	}

	if v := os.Getenv("FILE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.Retention = d
		}
	}

	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.SweepInterval = d
		}
	}

	if v := os.Getenv("DEFAULT_DPI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transform.DefaultDPI = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
