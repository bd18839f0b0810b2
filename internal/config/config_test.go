package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "this-is-a-very-long-jwt-secret-for-testing-32+"

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 720*time.Hour {
		t.Errorf("token ttl = %v, want 720h", cfg.Auth.TokenTTL)
	}
	if cfg.Reminder.Schedule != "@hourly" {
		t.Errorf("reminder schedule = %q", cfg.Reminder.Schedule)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `
server:
  port: 9090
  shutdown_timeout: "3s"
database:
  path: "/tmp/g.db"
auth:
  jwt_secret: "`+testSecret+`"
reminder:
  disabled: true
log:
  level: debug
  format: json
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "/tmp/g.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if !cfg.Reminder.Disabled {
		t.Error("reminder should be disabled")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q", cfg.Log.Format)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestServerValidate(t *testing.T) {
	valid := func() ServerConfig {
		return ServerConfig{
			Server:   HTTPConfig{Port: 8080},
			Database: DatabaseConfig{Path: "x.db"},
			Auth:     AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
			Reminder: ReminderConfig{Schedule: "@hourly"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{"valid", func(*ServerConfig) {}, false},
		{"short secret", func(c *ServerConfig) { c.Auth.JWTSecret = "short" }, true},
		{"zero ttl", func(c *ServerConfig) { c.Auth.TokenTTL = 0 }, true},
		{"bad port", func(c *ServerConfig) { c.Server.Port = 70000 }, true},
		{"empty db path", func(c *ServerConfig) { c.Database.Path = " " }, true},
		{"bad schedule", func(c *ServerConfig) { c.Reminder.Schedule = "every hour" }, true},
		{"bad schedule ignored when disabled", func(c *ServerConfig) {
			c.Reminder.Schedule = "every hour"
			c.Reminder.Disabled = true
		}, false},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadClient_FirstRunWritesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("server url = %q", cfg.ServerURL)
	}
	if cfg.DataPath != filepath.Join(dir, "nested", "gathersync.db") {
		t.Errorf("data path = %q, want it next to the config", cfg.DataPath)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	again, err := LoadClient(path)
	if err != nil {
		t.Fatalf("second LoadClient: %v", err)
	}
	if again.Timeouts.Batch != 30*time.Second {
		t.Errorf("batch timeout = %v, want 30s", again.Timeouts.Batch)
	}
	if again.Sync.Schedule != "@every 5m" {
		t.Errorf("sync schedule = %q", again.Sync.Schedule)
	}
}

func TestLoadClient_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `
server_url: "https://sync.example.com"
data_path: "/var/lib/gathersync/data.db"
timeouts:
  read: "2s"
`)
	t.Setenv("GATHERSYNC_REDIS_ADDR", "localhost:6379")

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "https://sync.example.com" {
		t.Errorf("server url = %q", cfg.ServerURL)
	}
	if cfg.DataPath != "/var/lib/gathersync/data.db" {
		t.Errorf("data path = %q", cfg.DataPath)
	}
	if cfg.Timeouts.Read != 2*time.Second || cfg.Timeouts.Write != 30*time.Second {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr = %q, want env value", cfg.Redis.Addr)
	}
	if cfg.Redis.Prefix != "gathersync:" {
		t.Errorf("redis prefix = %q", cfg.Redis.Prefix)
	}
}

func TestLoadClient_InvalidURL(t *testing.T) {
	path := writeYAML(t, t.TempDir(), `server_url: "ftp://nope"`)
	if _, err := LoadClient(path); err == nil {
		t.Fatal("expected validation error for non-http server url")
	}
}
