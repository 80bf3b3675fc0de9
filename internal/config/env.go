package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	if dbPath := os.Getenv("WORKLENS_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if settingsPath := os.Getenv("WORKLENS_SETTINGS_PATH"); settingsPath != "" {
		cfg.Settings.Path = settingsPath
	}

	if pollInterval := os.Getenv("WORKLENS_POLL_INTERVAL"); pollInterval != "" {
		if seconds, err := strconv.Atoi(pollInterval); err == nil && seconds > 0 {
			cfg.Tracker.PollInterval = time.Duration(seconds) * time.Second
		}
	}

	if flushInterval := os.Getenv("WORKLENS_FLUSH_INTERVAL"); flushInterval != "" {
		if seconds, err := strconv.Atoi(flushInterval); err == nil && seconds > 0 {
			cfg.Tracker.FlushInterval = time.Duration(seconds) * time.Second
		}
	}

	if idleThreshold := os.Getenv("WORKLENS_IDLE_THRESHOLD"); idleThreshold != "" {
		if seconds, err := strconv.Atoi(idleThreshold); err == nil && seconds > 0 {
			cfg.Idle.Threshold = time.Duration(seconds) * time.Second
		}
	}

	if jobRole := os.Getenv("WORKLENS_JOB_ROLE"); jobRole != "" {
		cfg.Focus.JobRole = jobRole
	}

	if pidFile := os.Getenv("WORKLENS_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("WORKLENS_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if webHost := os.Getenv("WORKLENS_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("WORKLENS_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
