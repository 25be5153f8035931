// Package logging sets up the application's leveled file logger. The TUI
// owns the terminal, so log output always goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`

// Config controls where and how much is logged.
type Config struct {
	// Path is the log file. Empty disables logging.
	Path  string
	Level log.Lvl
}

// DefaultConfig logs at INFO to the state directory.
func DefaultConfig() Config {
	return Config{Path: DefaultPath(), Level: log.INFO}
}

// ConfigFromEnv reads PRACTIZ_LOG and PRACTIZ_LOG_LEVEL over the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := os.Getenv("PRACTIZ_LOG"); p != "" {
		cfg.Path = p
	}
	if v := os.Getenv("PRACTIZ_LOG_LEVEL"); v != "" {
		if lvl, err := ParseLevel(v); err == nil {
			cfg.Level = lvl
		}
	}
	return cfg
}

// DefaultPath returns $XDG_STATE_HOME/practiz/practiz.log, falling back to
// ~/.local/state. It returns "" when no home directory is known.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "practiz", "practiz.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "practiz", "practiz.log")
}

// ParseLevel maps debug|info|warn|error|off to a gommon level.
func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "info", "":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off", "none":
		return log.OFF, nil
	default:
		return log.INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// Open creates a logger writing to cfg.Path. The returned closer releases
// the file; it is safe to call on a discarding logger.
func Open(cfg Config, prefix string) (*log.Logger, io.Closer, error) {
	if cfg.Path == "" || cfg.Level == log.OFF {
		return Discard(prefix), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, cfg.Level, prefix), f, nil
}

// New returns a logger writing to w at lvl.
func New(w io.Writer, lvl log.Lvl, prefix string) *log.Logger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetOutput(w)
	l.SetLevel(lvl)
	return l
}

// Discard returns a logger that writes nothing.
func Discard(prefix string) *log.Logger {
	return New(io.Discard, log.OFF, prefix)
}
