package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/Zereker/dock"
	"github.com/Zereker/dock/command"
)

// config is the runtime configuration of the serve command.
type config struct {
	Listen          string
	MetricsListen   string
	LogLevel        slog.Level
	Timeout         time.Duration
	ShutdownTimeout time.Duration
	MaxPayload      int
	SessionType     int32
	ReplyUnknown    bool
}

func defaultConfig() config {
	return config{
		Listen:       fmt.Sprintf(":%d", dock.DefaultPort),
		LogLevel:     slog.LevelInfo,
		Timeout:      dock.DefaultTimeout,
		MaxPayload:   command.DefaultMaxPayload,
		SessionType:  command.SynchronizeSession,
		ReplyUnknown: true,
	}
}

// fileConfig maps dockd.toml keys.
type fileConfig struct {
	Listen          string `toml:"listen"`
	MetricsListen   string `toml:"metrics_listen"`
	LogLevel        string `toml:"log_level"`
	Timeout         string `toml:"timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	MaxPayload      int    `toml:"max_payload"`
	SessionType     string `toml:"session_type"`
	ReplyUnknown    bool   `toml:"reply_unknown"`
}

var sessionTypes = map[string]int32{
	"none":          command.NoSession,
	"setup":         command.SettingUpSession,
	"sync":          command.SynchronizeSession,
	"restore":       command.RestoreSession,
	"load_package":  command.LoadPackageSession,
	"test_comm":     command.TestCommSession,
	"load_patch":    command.LoadPatchSession,
	"update_stores": command.UpdatingStores,
}

func parseSessionType(s string) (int32, error) {
	v, ok := sessionTypes[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, errors.Errorf("unknown session type %q", s)
	}
	return v, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}
	return level, nil
}

// loadConfig overlays the keys set in the file at path on the defaults.
// An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, errors.Wrap(err, "load dockd config")
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("metrics_listen") {
		cfg.MetricsListen = strings.TrimSpace(raw.MetricsListen)
	}
	if meta.IsDefined("log_level") {
		if cfg.LogLevel, err = parseLevel(raw.LogLevel); err != nil {
			return config{}, err
		}
	}
	if meta.IsDefined("timeout") {
		if cfg.Timeout, err = time.ParseDuration(raw.Timeout); err != nil {
			return config{}, errors.Wrap(err, "timeout")
		}
	}
	if meta.IsDefined("shutdown_timeout") {
		if cfg.ShutdownTimeout, err = time.ParseDuration(raw.ShutdownTimeout); err != nil {
			return config{}, errors.Wrap(err, "shutdown_timeout")
		}
	}
	if meta.IsDefined("max_payload") {
		if raw.MaxPayload <= 0 {
			return config{}, errors.Errorf("max_payload must be positive, got %d", raw.MaxPayload)
		}
		cfg.MaxPayload = raw.MaxPayload
	}
	if meta.IsDefined("session_type") {
		if cfg.SessionType, err = parseSessionType(raw.SessionType); err != nil {
			return config{}, err
		}
	}
	if meta.IsDefined("reply_unknown") {
		cfg.ReplyUnknown = raw.ReplyUnknown
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, errors.Errorf("load dockd config: unknown key %q", undecoded[0].String())
	}
	return cfg, nil
}

// sessionOptions returns the pipe and layer options for cfg.
func (c config) sessionOptions() []dock.Option {
	return []dock.Option{
		dock.TimeoutOption(c.Timeout),
		dock.MessageMaxSize(c.MaxPayload),
		dock.ReplyUnknownOption(c.ReplyUnknown),
	}
}
