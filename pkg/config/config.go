// Package config holds environment helpers shared by service configuration loaders.
package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

var envRegex = regexp.MustCompile(`\$\{([^:}]+)(?::([^}]*))?\}`)

// ExpandEnv expands ${VAR} and ${VAR:DEFAULT} references.
func ExpandEnv(s string) string {
	return envRegex.ReplaceAllStringFunc(s, func(m string) string {
		matches := envRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		key := matches[1]
		var defaultVal string
		if len(matches) > 2 {
			defaultVal = matches[2]
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return defaultVal
	})
}

// GetEnv returns the variable or defaultValue when unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt returns the variable parsed as int.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvInt64 returns the variable parsed as int64.
func GetEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvBool returns the variable parsed as bool.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvSlice splits a comma separated variable.
func GetEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// LogConfig logging section
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console, color
}

// DefaultLogConfig returns the default logging section.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}
