package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Lvl
		wantErr bool
	}{
		{"debug", log.DEBUG, false},
		{"INFO", log.INFO, false},
		{"warning", log.WARN, false},
		{" error ", log.ERROR, false},
		{"off", log.OFF, false},
		{"loud", log.INFO, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.WARN, "test")
	l.Infof("quiet %d", 1)
	l.Warnf("loud %d", 2)

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line written at WARN level: %q", out)
	}
	if !strings.Contains(out, "loud 2") || !strings.Contains(out, "WARN") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestOpen_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "practiz.log")
	l, closer, err := Open(Config{Path: path, Level: log.DEBUG}, "practiz")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Debugf("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q, want it to contain hello", data)
	}
}

func TestOpen_Disabled(t *testing.T) {
	l, closer, err := Open(Config{Level: log.INFO}, "practiz")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Errorf("dropped")
	if err := closer.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PRACTIZ_LOG", "/tmp/x.log")
	t.Setenv("PRACTIZ_LOG_LEVEL", "debug")
	cfg := ConfigFromEnv()
	if cfg.Path != "/tmp/x.log" || cfg.Level != log.DEBUG {
		t.Errorf("ConfigFromEnv() = %+v", cfg)
	}

	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultPath(); got != filepath.Join("/state", "practiz", "practiz.log") {
		t.Errorf("DefaultPath() = %q", got)
	}
}
