package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Script config
	assert.Equal(t, 64, cfg.Script.TaskBuffer)
	assert.Equal(t, 1024, cfg.Script.MaxCallStack)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 64, cfg.Script.TaskBuffer)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"SCRIPT_TASK_BUFFER":    "256",
		"SCRIPT_MAX_CALL_STACK": "4096",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 256, cfg.Script.TaskBuffer)
	assert.Equal(t, 4096, cfg.Script.MaxCallStack)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	err := os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, 64, cfg.Script.TaskBuffer)
}

func TestScriptConfig(t *testing.T) {
	tests := []struct {
		name      string
		buffer    string
		stack     string
		wantBuf   int
		wantStack int
	}{
		{
			name:      "default values",
			buffer:    "",
			stack:     "",
			wantBuf:   64,
			wantStack: 1024,
		},
		{
			name:      "custom buffer",
			buffer:    "8",
			stack:     "",
			wantBuf:   8,
			wantStack: 1024,
		},
		{
			name:      "custom stack limit",
			buffer:    "",
			stack:     "128",
			wantBuf:   64,
			wantStack: 128,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean environment
			os.Unsetenv("SCRIPT_TASK_BUFFER")
			os.Unsetenv("SCRIPT_MAX_CALL_STACK")

			if tt.buffer != "" {
				err := os.Setenv("SCRIPT_TASK_BUFFER", tt.buffer)
				require.NoError(t, err)
				defer os.Unsetenv("SCRIPT_TASK_BUFFER")
			}
			if tt.stack != "" {
				err := os.Setenv("SCRIPT_MAX_CALL_STACK", tt.stack)
				require.NoError(t, err)
				defer os.Unsetenv("SCRIPT_MAX_CALL_STACK")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantBuf, cfg.Script.TaskBuffer)
			assert.Equal(t, tt.wantStack, cfg.Script.MaxCallStack)
		})
	}
}
