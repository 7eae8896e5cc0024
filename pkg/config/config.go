// Package config loads thermod's YAML configuration file and layers
// environment variable overrides on top: viper binds a handful of
// well-known THERMOD_* variables, gopkg.in/yaml.v3 does the structural
// parse, and explicit overrides are applied afterward so env wins over
// file wins over built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration keys - centralized to keep flags/env/file aligned.
const (
	keyDaemonInterval     = "daemon.interval"
	keyDaemonSleepOnError = "daemon.sleep_on_error"
	keyDaemonTimetable    = "daemon.timetable_path"
	keyDaemonLogLevel     = "daemon.log_level"
	keyDaemonLogFile      = "daemon.log_file"
	keySocketHost         = "socket.host"
	keySocketPort         = "socket.port"
	keyDiagHealthPort     = "diagnostics.health_port"
	keyDiagMetricsPort    = "diagnostics.metrics_port"
)

// Environment variable names.
const (
	envDaemonInterval     = "THERMOD_INTERVAL"
	envDaemonSleepOnError = "THERMOD_SLEEP_ON_ERROR"
	envDaemonTimetable    = "THERMOD_TIMETABLE_PATH"
	envDaemonLogLevel     = "THERMOD_LOG_LEVEL"
	envDaemonLogFile      = "THERMOD_LOG_FILE"
	envSocketHost         = "THERMOD_SOCKET_HOST"
	envSocketPort         = "THERMOD_SOCKET_PORT"
	envDiagHealthPort     = "THERMOD_HEALTH_PORT"
	envDiagMetricsPort    = "THERMOD_METRICS_PORT"
)

// Config is thermod's complete application configuration.
type Config struct {
	Daemon      DaemonConfig      `yaml:"daemon"`
	Socket      SocketConfig      `yaml:"socket"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Thermometer DriverConfig      `yaml:"thermometer"`
	Heating     DriverConfig      `yaml:"heating"`
	Cooling     DriverConfig      `yaml:"cooling"`
}

// DaemonConfig contains the control cycle's own timing and logging.
type DaemonConfig struct {
	Interval      time.Duration `yaml:"interval"`
	SleepOnError  time.Duration `yaml:"sleep_on_error"`
	TimetablePath string        `yaml:"timetable_path"`
	LogLevel      string        `yaml:"log_level"`
	LogFile       string        `yaml:"log_file"`
}

// SocketConfig is the control socket's listen address.
type SocketConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DiagnosticsConfig holds the diagnostics listen ports. cmd/thermod serves
// both /healthz and /metrics on HealthPort; MetricsPort is loaded and
// defaulted but no listener is opened on it.
type DiagnosticsConfig struct {
	HealthPort  int `yaml:"health_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// DriverConfig selects and configures a thermometer or actuator
// implementation (memory, remote, script, ...).
type DriverConfig struct {
	Driver   string         `yaml:"driver"`
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// LoadConfig loads configuration from a YAML file with environment
// variable overrides.
//
// Configuration Precedence (highest to lowest):
//  1. Environment variables (THERMOD_LOG_LEVEL, THERMOD_INTERVAL, etc.)
//  2. Configuration file values
//  3. Default values
//
// For driver settings:
//   - THERMOMETER_SETTINGS_URL, HEATING_SETTINGS_SCRIPT_PATH, ...
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindCoreEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	cfg, err := parseYAMLConfig(configPath)
	if err != nil {
		return nil, err
	}

	setViperDefaults(v)
	applyDaemonOverrides(v, &cfg.Daemon)
	applySocketOverrides(v, &cfg.Socket)
	applyDiagnosticsOverrides(v, &cfg.Diagnostics)

	applyDriverEnvOverrides("THERMOMETER", &cfg.Thermometer)
	applyDriverEnvOverrides("HEATING", &cfg.Heating)
	applyDriverEnvOverrides("COOLING", &cfg.Cooling)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func bindCoreEnvVars(v *viper.Viper) {
	_ = v.BindEnv(keyDaemonInterval, envDaemonInterval)
	_ = v.BindEnv(keyDaemonSleepOnError, envDaemonSleepOnError)
	_ = v.BindEnv(keyDaemonTimetable, envDaemonTimetable)
	_ = v.BindEnv(keyDaemonLogLevel, envDaemonLogLevel)
	_ = v.BindEnv(keyDaemonLogFile, envDaemonLogFile)
	_ = v.BindEnv(keySocketHost, envSocketHost)
	_ = v.BindEnv(keySocketPort, envSocketPort)
	_ = v.BindEnv(keyDiagHealthPort, envDiagHealthPort)
	_ = v.BindEnv(keyDiagMetricsPort, envDiagMetricsPort)
}

func parseYAMLConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file for YAML parsing: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}
	return &cfg, nil
}

func applyDaemonOverrides(v *viper.Viper, d *DaemonConfig) {
	applyDurationOverride(v, keyDaemonInterval, &d.Interval, 5*time.Minute)
	applyDurationOverride(v, keyDaemonSleepOnError, &d.SleepOnError, 30*time.Second)
	applyStringOverride(v, keyDaemonTimetable, &d.TimetablePath, "/etc/thermod/timetable.json")
	applyStringOverride(v, keyDaemonLogLevel, &d.LogLevel, "info")
	applyStringOverride(v, keyDaemonLogFile, &d.LogFile, "")
}

func applySocketOverrides(v *viper.Viper, s *SocketConfig) {
	applyStringOverride(v, keySocketHost, &s.Host, "0.0.0.0")
	applyIntOverride(v, keySocketPort, &s.Port, 4344)
}

func applyDiagnosticsOverrides(v *viper.Viper, d *DiagnosticsConfig) {
	applyIntOverride(v, keyDiagHealthPort, &d.HealthPort, 8080)
	applyIntOverride(v, keyDiagMetricsPort, &d.MetricsPort, 9090)
}

func applyDurationOverride(v *viper.Viper, key string, target *time.Duration, defaultVal time.Duration) {
	if strVal := v.GetString(key); strVal != "" {
		if dur, err := time.ParseDuration(strVal); err == nil {
			*target = dur
			return
		}
	}
	if *target == 0 {
		*target = defaultVal
	}
}

func applyStringOverride(v *viper.Viper, key string, target *string, defaultVal string) {
	if v.IsSet(key) {
		*target = v.GetString(key)
	} else if *target == "" {
		*target = defaultVal
	}
}

func applyIntOverride(v *viper.Viper, key string, target *int, defaultVal int) {
	if v.IsSet(key) {
		*target = v.GetInt(key)
	} else if *target == 0 {
		*target = defaultVal
	}
}

// applyDriverEnvOverrides applies <PREFIX>_SETTINGS_<KEY> environment
// overrides to a driver's settings map, e.g. HEATING_SETTINGS_SCRIPT_PATH.
func applyDriverEnvOverrides(prefix string, d *DriverConfig) {
	if d.Settings == nil {
		d.Settings = make(map[string]any)
	}
	envPrefix := prefix + "_SETTINGS_"
	for key := range d.Settings {
		envKey := envPrefix + strings.ToUpper(key)
		if envVal := os.Getenv(envKey); envVal != "" {
			d.Settings[key] = envVal
		}
	}
	if envDriver := os.Getenv(prefix + "_DRIVER"); envDriver != "" {
		d.Driver = envDriver
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Daemon.Interval <= 0 {
		return fmt.Errorf("daemon.interval must be positive")
	}
	if cfg.Daemon.SleepOnError <= 0 {
		return fmt.Errorf("daemon.sleep_on_error must be positive")
	}
	if cfg.Daemon.TimetablePath == "" {
		return fmt.Errorf("daemon.timetable_path must be set")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Daemon.LogLevel] {
		return fmt.Errorf("invalid log_level: %s, must be one of: debug, info, warn, error", cfg.Daemon.LogLevel)
	}

	if cfg.Thermometer.Driver == "" {
		return fmt.Errorf("thermometer.driver must be set")
	}
	if cfg.Heating.Driver == "" {
		return fmt.Errorf("heating.driver must be set")
	}

	if cfg.Socket.Port <= 0 || cfg.Socket.Port > 65535 {
		return fmt.Errorf("socket.port must be a valid TCP port")
	}

	return nil
}
