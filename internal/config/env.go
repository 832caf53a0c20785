package config

import (
	"os"
	"strconv"
	"time"

	"github.com/middrag/middrag/pkg/desktop"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override file and default values
func LoadFromEnv(cfg *Config) {
	// Gesture configuration
	if threshold := os.Getenv("MIDDRAG_THRESHOLD"); threshold != "" {
		if px, err := strconv.ParseFloat(threshold, 64); err == nil && px >= 1 {
			cfg.Gesture.Threshold = px
		}
	}

	if button := os.Getenv("MIDDRAG_TRIGGER_BUTTON"); button != "" {
		if b, err := desktop.ParseButton(button); err == nil {
			cfg.Gesture.TriggerButton = b
		}
	}

	if lang := os.Getenv("MIDDRAG_LANGUAGE"); lang != "" {
		cfg.Gesture.Language = lang
	}

	// Tracker configuration
	if window := os.Getenv("MIDDRAG_SUPPRESS_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil && d >= 0 {
			cfg.Tracker.SuppressWindow = Duration(d)
		}
	}

	// Database configuration
	if dbPath := os.Getenv("MIDDRAG_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if enabled := os.Getenv("MIDDRAG_DB_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Database.Enabled = val
		}
	}

	// Daemon configuration
	if pidFile := os.Getenv("MIDDRAG_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Web configuration
	if webHost := os.Getenv("MIDDRAG_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("MIDDRAG_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	// Logging
	if level := os.Getenv("MIDDRAG_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if logFile := os.Getenv("MIDDRAG_LOG_FILE"); logFile != "" {
		cfg.Log.File = logFile
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
