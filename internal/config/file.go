package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"

	"github.com/middrag/middrag/pkg/desktop"
)

const (
	fileName       = "config.toml"
	legacyFileName = "config.ini"
)

// DefaultPath returns $XDG_CONFIG_HOME/middrag/config.toml (~/.config on Linux).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to get config directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "middrag", fileName), nil
}

// Load reads the config file at path on top of the defaults, then applies the
// environment. A missing file is not an error. When no TOML file exists a legacy
// config.ini next to it is read instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	switch _, err := os.Stat(path); {
	case err == nil:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		legacy := filepath.Join(filepath.Dir(path), legacyFileName)
		if _, err := os.Stat(legacy); err == nil {
			if err := loadINI(legacy, cfg); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// loadINI reads the flat key=value format of older releases. Only gesture keys
// were ever stored there.
func loadINI(path string, cfg *Config) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	sec := f.Section("")
	for _, key := range sec.Keys() {
		if err := cfg.Set(key.Name(), key.String()); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// Keys lists the names accepted by Set.
func Keys() []string {
	return []string{
		"drag_left", "drag_right", "drag_up", "drag_down",
		"trigger_button", "threshold", "launch_at_login", "language",
		"suppress_window", "pending_ttl", "max_entries",
		"db_enabled", "web_host", "web_port", "log_level",
	}
}

// Set assigns a single setting from its text form.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ReplaceAll(strings.ToLower(key), "-", "_") {
	case "drag_left":
		return c.Gesture.DragLeft.UnmarshalText([]byte(value))
	case "drag_right":
		return c.Gesture.DragRight.UnmarshalText([]byte(value))
	case "drag_up":
		return c.Gesture.DragUp.UnmarshalText([]byte(value))
	case "drag_down":
		return c.Gesture.DragDown.UnmarshalText([]byte(value))
	case "trigger_button":
		b, err := desktop.ParseButton(value)
		if err != nil {
			return err
		}
		c.Gesture.TriggerButton = b
	case "threshold":
		px, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid threshold %q: %w", value, err)
		}
		return c.SetThreshold(px)
	case "launch_at_login":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		c.Gesture.LaunchAtLogin = v
	case "language":
		if value != "auto" {
			if _, err := ParseLanguage(value); err != nil {
				return err
			}
		}
		c.Gesture.Language = value
	case "suppress_window":
		return c.Tracker.SuppressWindow.UnmarshalText([]byte(value))
	case "pending_ttl":
		return c.Tracker.PendingTTL.UnmarshalText([]byte(value))
	case "max_entries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid max entries %q", value)
		}
		c.Tracker.MaxEntries = n
	case "db_enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		c.Database.Enabled = v
	case "web_host":
		if value == "" {
			return fmt.Errorf("web host cannot be empty")
		}
		c.Web.Host = value
	case "web_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", value, err)
		}
		return c.SetWebPort(port)
	case "log_level":
		c.Log.Level = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns the text form of a single setting.
func (c *Config) Get(key string) (string, error) {
	switch strings.ReplaceAll(strings.ToLower(key), "-", "_") {
	case "drag_left":
		return c.Gesture.DragLeft.String(), nil
	case "drag_right":
		return c.Gesture.DragRight.String(), nil
	case "drag_up":
		return c.Gesture.DragUp.String(), nil
	case "drag_down":
		return c.Gesture.DragDown.String(), nil
	case "trigger_button":
		return c.Gesture.TriggerButton.String(), nil
	case "threshold":
		return strconv.FormatFloat(c.Gesture.Threshold, 'f', -1, 64), nil
	case "launch_at_login":
		return strconv.FormatBool(c.Gesture.LaunchAtLogin), nil
	case "language":
		return c.Gesture.Language, nil
	case "suppress_window":
		return c.Tracker.SuppressWindow.String(), nil
	case "pending_ttl":
		return c.Tracker.PendingTTL.String(), nil
	case "max_entries":
		return strconv.Itoa(c.Tracker.MaxEntries), nil
	case "db_enabled":
		return strconv.FormatBool(c.Database.Enabled), nil
	case "web_host":
		return c.Web.Host, nil
	case "web_port":
		return strconv.Itoa(c.Web.Port), nil
	case "log_level":
		return c.Log.Level, nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}
