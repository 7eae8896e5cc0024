package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thermod.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}
	return path
}

const baseConfig = `
daemon:
  interval: "2m"
  sleep_on_error: "15s"
  timetable_path: "/var/lib/thermod/timetable.json"
  log_level: "info"
socket:
  host: "127.0.0.1"
  port: 4344
thermometer:
  driver: "memory"
  enabled: true
heating:
  driver: "script"
  enabled: true
  settings:
    script_path: "/usr/local/bin/heat.sh"
cooling:
  driver: "script"
  enabled: false
  settings:
    script_path: "/usr/local/bin/cool.sh"
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
daemon:
  timetable_path: "/var/lib/thermod/timetable.json"
thermometer:
  driver: "memory"
heating:
  driver: "script"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Daemon.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m default", cfg.Daemon.Interval)
	}
	if cfg.Daemon.SleepOnError != 30*time.Second {
		t.Errorf("SleepOnError = %v, want 30s default", cfg.Daemon.SleepOnError)
	}
	if cfg.Daemon.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info default", cfg.Daemon.LogLevel)
	}
	if cfg.Socket.Port != 4344 {
		t.Errorf("Socket.Port = %d, want 4344 default", cfg.Socket.Port)
	}
	if cfg.Diagnostics.HealthPort != 8080 {
		t.Errorf("HealthPort = %d, want 8080 default", cfg.Diagnostics.HealthPort)
	}
}

func TestLoadConfigReadsExplicitValues(t *testing.T) {
	path := writeConfigFile(t, baseConfig)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Daemon.Interval != 2*time.Minute {
		t.Errorf("Interval = %v, want 2m", cfg.Daemon.Interval)
	}
	if cfg.Socket.Host != "127.0.0.1" {
		t.Errorf("Socket.Host = %q, want 127.0.0.1", cfg.Socket.Host)
	}
	if cfg.Heating.Settings["script_path"] != "/usr/local/bin/heat.sh" {
		t.Errorf("Heating script_path = %v, want /usr/local/bin/heat.sh", cfg.Heating.Settings["script_path"])
	}
	if cfg.Cooling.Enabled {
		t.Error("expected cooling disabled per fixture")
	}
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, baseConfig)
	t.Setenv("THERMOD_LOG_LEVEL", "debug")
	t.Setenv("THERMOD_SOCKET_PORT", "9999")
	t.Setenv("HEATING_SETTINGS_SCRIPT_PATH", "/override/heat.sh")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Daemon.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from env", cfg.Daemon.LogLevel)
	}
	if cfg.Socket.Port != 9999 {
		t.Errorf("Socket.Port = %d, want 9999 from env", cfg.Socket.Port)
	}
	if cfg.Heating.Settings["script_path"] != "/override/heat.sh" {
		t.Errorf("Heating script_path = %v, want env override", cfg.Heating.Settings["script_path"])
	}
}

func TestLoadConfigRejectsMissingTimetablePath(t *testing.T) {
	path := writeConfigFile(t, `
thermometer:
  driver: "memory"
heating:
  driver: "script"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing timetable_path")
	}
}

func TestLoadConfigRejectsInvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
daemon:
  timetable_path: "/var/lib/thermod/timetable.json"
  log_level: "verbose"
thermometer:
  driver: "memory"
heating:
  driver: "script"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for invalid log_level")
	}
}

func TestLoadConfigRejectsMissingDrivers(t *testing.T) {
	path := writeConfigFile(t, `
daemon:
  timetable_path: "/var/lib/thermod/timetable.json"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing driver selection")
	}
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
