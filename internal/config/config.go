package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Settings document configuration
	Settings SettingsConfig

	// Tracker configuration
	Tracker TrackerConfig

	// Idle detection configuration
	Idle IdleConfig

	// Focus mode configuration
	Focus FocusConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// SettingsConfig holds user settings document configuration
type SettingsConfig struct {
	Path string // Path to settings TOML file
}

// TrackerConfig holds window tracking behavior configuration
type TrackerConfig struct {
	PollInterval  time.Duration // How often to check the focused window
	FlushInterval time.Duration // How often an open session's length is persisted
}

// IdleConfig holds idle detection configuration
type IdleConfig struct {
	PollInterval time.Duration // How often to poll the idle source
	Threshold    time.Duration // Time without input before considering the user idle
}

// FocusConfig holds focus-mode distraction monitoring configuration
type FocusConfig struct {
	PollInterval  time.Duration // How often to check the active window during a focus session
	AlertCooldown time.Duration // Minimum time between alerts for the same app
	JobRole       string        // Role used to resolve the non-focus category list
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
	LogFile string // Path to daemon log file
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/worklens/worklens.db
		},
		Settings: SettingsConfig{
			Path: "", // Empty means use default ~/.config/worklens/settings.toml
		},
		Tracker: TrackerConfig{
			PollInterval:  1 * time.Second,
			FlushInterval: 10 * time.Second,
		},
		Idle: IdleConfig{
			PollInterval: 10 * time.Second,
			Threshold:    5 * time.Minute,
		},
		Focus: FocusConfig{
			PollInterval:  3 * time.Second,
			AlertCooldown: 30 * time.Second,
			JobRole:       "Software Engineer",
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/worklens-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/worklens-%d.log", os.Getuid()),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.PollInterval <= 0 {
		return fmt.Errorf("tracker poll interval must be positive, got %v", c.Tracker.PollInterval)
	}

	if c.Tracker.FlushInterval < c.Tracker.PollInterval {
		return fmt.Errorf("flush interval (%v) cannot be less than poll interval (%v)",
			c.Tracker.FlushInterval, c.Tracker.PollInterval)
	}

	if c.Idle.PollInterval <= 0 {
		return fmt.Errorf("idle poll interval must be positive, got %v", c.Idle.PollInterval)
	}

	if c.Idle.Threshold <= 0 {
		return fmt.Errorf("idle threshold must be positive, got %v", c.Idle.Threshold)
	}

	if c.Focus.PollInterval <= 0 {
		return fmt.Errorf("focus poll interval must be positive, got %v", c.Focus.PollInterval)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// IdleThresholdMillis returns the idle threshold in milliseconds
func (c *Config) IdleThresholdMillis() int64 {
	return c.Idle.Threshold.Milliseconds()
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Settings:
    Path: %s
  Tracker:
    Poll Interval: %v
    Flush Interval: %v
  Idle:
    Poll Interval: %v
    Threshold: %v
  Focus:
    Poll Interval: %v
    Alert Cooldown: %v
    Job Role: %s
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d`,
		c.Database.Path,
		c.Settings.Path,
		c.Tracker.PollInterval,
		c.Tracker.FlushInterval,
		c.Idle.PollInterval,
		c.Idle.Threshold,
		c.Focus.PollInterval,
		c.Focus.AlertCooldown,
		c.Focus.JobRole,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
	)
}
