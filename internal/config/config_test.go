package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Backend.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.Backend.PollInterval)
	}
	if cfg.Backend.SnapshotRetention != 30*time.Minute {
		t.Errorf("SnapshotRetention = %v, want 30m", cfg.Backend.SnapshotRetention)
	}
	if cfg.Display.ClockShift() != 6*time.Hour {
		t.Errorf("ClockShift = %v, want 6h", cfg.Display.ClockShift())
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BACKEND_URL", "https://api.example.et/v1")
	t.Setenv("BACKEND_POLL_INTERVAL", "5s")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "https://a.et,https://b.et")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "https://api.example.et/v1" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.Backend.PollInterval)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
backend:
  base_url: http://backend.local/api
  poll_interval: 3s
logger:
  level: debug
  format: text
display:
  utc_offset_hours: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Backend.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %v, want 3s", cfg.Backend.PollInterval)
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("Level = %q, env should override file", cfg.Logger.Level)
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Logger.Format)
	}
	if cfg.Display.UTCOffsetHours != 0 {
		t.Errorf("UTCOffsetHours = %d, want 0", cfg.Display.UTCOffsetHours)
	}
	// Unset keys keep their defaults.
	if cfg.Backend.BreakerFailures != 5 {
		t.Errorf("BreakerFailures = %d, want 5", cfg.Backend.BreakerFailures)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"relative backend url", "BACKEND_URL", "/api"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero rps", "SECURITY_RATE_LIMIT_RPS", "0"},
		{"offset out of range", "DISPLAY_UTC_OFFSET_HOURS", "20"},
		{"negative snapshot retention", "BACKEND_SNAPSHOT_RETENTION", "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestDisplayConfig_Location(t *testing.T) {
	d := DisplayConfig{UTCOffsetHours: 3}
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, d.Location()).Zone()
	if offset != 3*3600 {
		t.Errorf("offset = %d, want %d", offset, 3*3600)
	}
}
