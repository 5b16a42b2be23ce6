// Package config loads the service configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/config"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/crypto"
)

// Config service configuration
type Config struct {
	Service ServiceConfig    `yaml:"service" json:"service"`
	Crypto  CryptoConfig     `yaml:"crypto" json:"crypto"`
	Limits  LimitsConfig     `yaml:"limits" json:"limits"`
	Log     config.LogConfig `yaml:"log" json:"log"`
}

// ServiceConfig service identity and listener
type ServiceConfig struct {
	Name     string `yaml:"name" json:"name"`
	HTTPPort int    `yaml:"http_port" json:"http_port"`
	Env      string `yaml:"env" json:"env"`
}

// CryptoConfig selects the primitive backends.
type CryptoConfig struct {
	Recovery string `yaml:"recovery" json:"recovery"` // geth, btcec
	Keccak   string `yaml:"keccak" json:"keccak"`     // sha3, geth
}

// LimitsConfig request size limits
type LimitsConfig struct {
	MaxBodyBytes      int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxTypedDataBytes int   `yaml:"max_typed_data_bytes" json:"max_typed_data_bytes"`
}

// Load reads path (optional), expands ${VAR:DEFAULT} references and applies
// SIGKIT_* overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := config.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Service.HTTPPort <= 0 || c.Service.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.Service.HTTPPort)
	}
	if _, err := crypto.NewRecoverer(c.Crypto.Recovery); err != nil {
		return fmt.Errorf("crypto.recovery: %w", err)
	}
	if _, err := crypto.NewKeccak(c.Crypto.Keccak); err != nil {
		return fmt.Errorf("crypto.keccak: %w", err)
	}
	if c.Limits.MaxBodyBytes <= 0 {
		return fmt.Errorf("limits.max_body_bytes must be positive")
	}
	if c.Limits.MaxTypedDataBytes <= 0 || int64(c.Limits.MaxTypedDataBytes) > c.Limits.MaxBodyBytes {
		return fmt.Errorf("limits.max_typed_data_bytes must be positive and not exceed max_body_bytes")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "eidos-sigkit",
			HTTPPort: 8090,
			Env:      "dev",
		},
		Crypto: CryptoConfig{
			Recovery: "geth",
			Keccak:   "sha3",
		},
		Limits: LimitsConfig{
			MaxBodyBytes:      1 << 20,
			MaxTypedDataBytes: 256 << 10,
		},
		Log: config.DefaultLogConfig(),
	}
}

func overrideFromEnv(cfg *Config) {
	cfg.Service.Name = config.GetEnv("SIGKIT_SERVICE_NAME", cfg.Service.Name)
	cfg.Service.HTTPPort = config.GetEnvInt("SIGKIT_HTTP_PORT", cfg.Service.HTTPPort)
	cfg.Service.Env = config.GetEnv("SIGKIT_ENV", cfg.Service.Env)

	if v := os.Getenv("SIGKIT_RECOVERY_BACKEND"); v != "" {
		cfg.Crypto.Recovery = strings.ToLower(v)
	}
	if v := os.Getenv("SIGKIT_KECCAK_BACKEND"); v != "" {
		cfg.Crypto.Keccak = strings.ToLower(v)
	}

	cfg.Limits.MaxBodyBytes = config.GetEnvInt64("SIGKIT_MAX_BODY_BYTES", cfg.Limits.MaxBodyBytes)
	cfg.Limits.MaxTypedDataBytes = config.GetEnvInt("SIGKIT_MAX_TYPED_DATA_BYTES", cfg.Limits.MaxTypedDataBytes)

	cfg.Log.Level = config.GetEnv("SIGKIT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = config.GetEnv("SIGKIT_LOG_FORMAT", cfg.Log.Format)
}
