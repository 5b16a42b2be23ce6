package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("SIGKIT_TEST_PORT", "9090")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "port: ${SIGKIT_TEST_PORT}", "port: 9090"},
		{"set variable ignores default", "port: ${SIGKIT_TEST_PORT:80}", "port: 9090"},
		{"unset variable uses default", "level: ${SIGKIT_TEST_UNSET:info}", "level: info"},
		{"unset variable without default", "level: ${SIGKIT_TEST_UNSET}", "level: "},
		{"no references", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnv(tt.input))
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SIGKIT_TEST_INT", "42")
	t.Setenv("SIGKIT_TEST_BAD_INT", "x")
	t.Setenv("SIGKIT_TEST_BOOL", "true")
	t.Setenv("SIGKIT_TEST_SLICE", "a,b")

	assert.Equal(t, "fallback", GetEnv("SIGKIT_TEST_MISSING", "fallback"))
	assert.Equal(t, 42, GetEnvInt("SIGKIT_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("SIGKIT_TEST_BAD_INT", 1))
	assert.Equal(t, int64(42), GetEnvInt64("SIGKIT_TEST_INT", 0))
	assert.True(t, GetEnvBool("SIGKIT_TEST_BOOL", false))
	assert.Equal(t, []string{"a", "b"}, GetEnvSlice("SIGKIT_TEST_SLICE", nil))
	assert.Equal(t, "info", DefaultLogConfig().Level)
}
