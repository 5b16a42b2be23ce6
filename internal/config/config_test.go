package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "eidos-sigkit", cfg.Service.Name)
	assert.Equal(t, 8090, cfg.Service.HTTPPort)
	assert.Equal(t, "geth", cfg.Crypto.Recovery)
	assert.Equal(t, "sha3", cfg.Crypto.Keccak)
	assert.Equal(t, int64(1<<20), cfg.Limits.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
service:
  name: sigkit-test
  http_port: 9000
  env: prod
crypto:
  recovery: btcec
  keccak: geth
limits:
  max_body_bytes: 4096
  max_typed_data_bytes: 2048
log:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sigkit-test", cfg.Service.Name)
	assert.Equal(t, 9000, cfg.Service.HTTPPort)
	assert.Equal(t, "prod", cfg.Service.Env)
	assert.Equal(t, "btcec", cfg.Crypto.Recovery)
	assert.Equal(t, "geth", cfg.Crypto.Keccak)
	assert.Equal(t, int64(4096), cfg.Limits.MaxBodyBytes)
	assert.Equal(t, 2048, cfg.Limits.MaxTypedDataBytes)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SIGKIT_TEST_PORT", "9100")
	path := writeConfig(t, `
service:
  http_port: ${SIGKIT_TEST_PORT:8090}
  env: ${SIGKIT_TEST_UNSET_ENV:staging}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Service.HTTPPort)
	assert.Equal(t, "staging", cfg.Service.Env)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIGKIT_HTTP_PORT", "7000")
	t.Setenv("SIGKIT_RECOVERY_BACKEND", "BTCEC")
	t.Setenv("SIGKIT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Service.HTTPPort)
	assert.Equal(t, "btcec", cfg.Crypto.Recovery)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "service: [1, 2"},
		{"bad port", "service:\n  http_port: 70000\n"},
		{"unknown recovery backend", "crypto:\n  recovery: openssl\n"},
		{"unknown keccak backend", "crypto:\n  keccak: blake3\n"},
		{"typed data limit above body limit", "limits:\n  max_body_bytes: 10\n  max_typed_data_bytes: 20\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
