package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/dock"
	"github.com/Zereker/dock/command"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dockd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":3679", cfg.Listen)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, dock.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, command.DefaultMaxPayload, cfg.MaxPayload)
	assert.Equal(t, command.SynchronizeSession, cfg.SessionType)
	assert.True(t, cfg.ReplyUnknown)
	assert.Len(t, cfg.sessionOptions(), 3)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
listen = "127.0.0.1:4000"
metrics_listen = "127.0.0.1:9100"
log_level = "debug"
timeout = "5s"
shutdown_timeout = "2s"
max_payload = 65536
session_type = "load_package"
reply_unknown = false
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.Listen)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsListen)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 65536, cfg.MaxPayload)
	assert.Equal(t, command.LoadPackageSession, cfg.SessionType)
	assert.False(t, cfg.ReplyUnknown)
}

func TestLoadConfigKeepsUnsetDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `log_level = "warn"`))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, ":3679", cfg.Listen)
	assert.True(t, cfg.ReplyUnknown)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]string{
		"bad toml":     `listen = `,
		"bad duration": `timeout = "soon"`,
		"bad level":    `log_level = "loud"`,
		"bad session":  `session_type = "party"`,
		"bad payload":  `max_payload = 0`,
		"unknown key":  `colour = "blue"`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
