package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
api:
  port: 9000
hue:
  app_id: "lumenhub#test"
events:
  capacity: 16
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.Hue.AppID != "lumenhub#test" {
		t.Errorf("Hue.AppID = %q, want %q", cfg.Hue.AppID, "lumenhub#test")
	}
	if cfg.Events.Capacity != 16 {
		t.Errorf("Events.Capacity = %d, want 16", cfg.Events.Capacity)
	}

	// Unset sections keep their defaults
	if cfg.Hue.RequestTimeout != 10 {
		t.Errorf("Hue.RequestTimeout = %d, want default 10", cfg.Hue.RequestTimeout)
	}
	if cfg.Stream.HeartbeatInterval != 30 {
		t.Errorf("Stream.HeartbeatInterval = %d, want default 30", cfg.Stream.HeartbeatInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error for missing jwt secret, got nil")
	}
	if !strings.Contains(err.Error(), "security.jwt.secret") {
		t.Errorf("error = %v, want mention of security.jwt.secret", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/file.db"
`)

	t.Setenv("LUMENHUB_DB_PATH", "/tmp/env.db")
	t.Setenv("LUMENHUB_API_PORT", "8123")
	t.Setenv("LUMENHUB_JWT_SECRET", testSecret)
	t.Setenv("LUMENHUB_HUE_APP_ID", "env#app")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.API.Port != 8123 {
		t.Errorf("API.Port = %d, want 8123", cfg.API.Port)
	}
	if cfg.Security.JWT.Secret != testSecret {
		t.Error("JWT secret not taken from environment")
	}
	if cfg.Hue.AppID != "env#app" {
		t.Errorf("Hue.AppID = %q, want env#app", cfg.Hue.AppID)
	}
}

func TestLoad_EnvPortIgnoredWhenInvalid(t *testing.T) {
	path := writeConfig(t, `
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)
	t.Setenv("LUMENHUB_API_PORT", "not-a-port")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Port != 8000 {
		t.Errorf("API.Port = %d, want default 8000", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "zero bus capacity",
			mutate:  func(c *Config) { c.Events.Capacity = 0 },
			wantErr: "events.capacity",
		},
		{
			name:    "empty hue app id",
			mutate:  func(c *Config) { c.Hue.AppID = "" },
			wantErr: "hue.app_id",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name: "mqtt qos ignored when disabled",
			mutate: func(c *Config) {
				c.MQTT.Enabled = false
				c.MQTT.QoS = 5
			},
		},
		{
			name: "mqtt qos checked when enabled",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 5
			},
			wantErr: "mqtt.qos",
		},
		{
			name: "influxdb requires url when enabled",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "state"
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetHueRequestTimeout(); got != 10*time.Second {
		t.Errorf("GetHueRequestTimeout() = %v, want 10s", got)
	}
}
