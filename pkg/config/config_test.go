package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, FormatText, cfg.OutputFormat)
	assert.Equal(t, ColorAuto, cfg.Color)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.True(t, cfg.ReportAllOnConnect)
	assert.Equal(t, uint32(256), cfg.QueueSize)
	assert.Empty(t, cfg.Script)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected logrus.Level
	}{
		{name: "debug", logLevel: "debug", expected: logrus.DebugLevel},
		{name: "warn", logLevel: "warning", expected: logrus.WarnLevel},
		{name: "upper case", logLevel: "ERROR", expected: logrus.ErrorLevel},
		{name: "invalid falls back to info", logLevel: "chatty", expected: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.Equal(t, tt.expected, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			require.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glucoble.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
output_format: json
connect_timeout: 10s
report_all_on_connect: false
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.OutputFormat)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.False(t, cfg.ReportAllOnConnect)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, ColorAuto, cfg.Color)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("connect_timeout: [1, 2]\n"), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("output_format: xml\n"), 0o600))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*Config) {}, valid: true},
		{name: "yaml output", modify: func(c *Config) { c.OutputFormat = FormatYAML }, valid: true},
		{name: "never color", modify: func(c *Config) { c.Color = ColorNever }, valid: true},
		{name: "bad level", modify: func(c *Config) { c.LogLevel = "loud" }, valid: false},
		{name: "bad format", modify: func(c *Config) { c.OutputFormat = "csv" }, valid: false},
		{name: "bad color", modify: func(c *Config) { c.Color = "sometimes" }, valid: false},
		{name: "zero timeout", modify: func(c *Config) { c.ReadTimeout = 0 }, valid: false},
		{name: "zero queue", modify: func(c *Config) { c.QueueSize = 0 }, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func BenchmarkConfig_NewLogger(b *testing.B) {
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.NewLogger()
	}
}
