package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/middrag/middrag/pkg/desktop"
)

// Config holds all application configuration
type Config struct {
	// Gesture mapping, read on every pointer event
	Gesture GestureConfig `toml:"gesture"`

	// App history behavior
	Tracker TrackerConfig `toml:"tracker"`

	// System action helpers
	Actions ActionsConfig `toml:"actions"`

	// Daemon configuration
	Daemon DaemonConfig `toml:"daemon"`

	// Usage log database
	Database DatabaseConfig `toml:"database"`

	// Web server configuration
	Web WebConfig `toml:"web"`

	// Logging
	Log LogConfig `toml:"log"`
}

// GestureConfig maps drag directions to actions.
type GestureConfig struct {
	DragLeft      Action         `toml:"drag_left" json:"drag_left"`
	DragRight     Action         `toml:"drag_right" json:"drag_right"`
	DragUp        Action         `toml:"drag_up" json:"drag_up"`
	DragDown      Action         `toml:"drag_down" json:"drag_down"`
	TriggerButton desktop.Button `toml:"trigger_button" json:"trigger_button"`
	Threshold     float64        `toml:"threshold" json:"threshold"` // minimum drag distance in pixels
	LaunchAtLogin bool           `toml:"launch_at_login" json:"launch_at_login"`
	Language      string         `toml:"language" json:"language"` // "auto" or a BCP 47 tag
}

// TrackerConfig holds app history configuration
type TrackerConfig struct {
	MaxEntries      int      `toml:"max_entries" json:"max_entries"`
	SuppressWindow  Duration `toml:"suppress_window" json:"suppress_window"`   // ignore activations after a system gesture
	PendingTTL      Duration `toml:"pending_ttl" json:"pending_ttl"`           // drop unanswered activation requests, 0 keeps them
	ActivateTimeout Duration `toml:"activate_timeout" json:"activate_timeout"` // bound on one activation request
	Blocklist       []string `toml:"blocklist" json:"blocklist"`               // app IDs that are never tracked
}

// ActionsConfig holds the external commands and shortcuts for system actions.
type ActionsConfig struct {
	MissionControlCommand []string         `toml:"mission_control_command"`
	LaunchpadCommand      []string         `toml:"launchpad_command"`
	ShowDesktopCommand    []string         `toml:"show_desktop_command"`
	AppExposeShortcut     desktop.Shortcut `toml:"app_expose_shortcut"`
	SpaceLeftShortcut     desktop.Shortcut `toml:"space_left_shortcut"`
	SpaceRightShortcut    desktop.Shortcut `toml:"space_right_shortcut"`
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile  string `toml:"pid_file"`  // Path to PID file for daemon management
	LockFile string `toml:"lock_file"` // Single instance lock
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path    string `toml:"path"` // Empty means $XDG_CONFIG_HOME/middrag/middrag.db
	Enabled bool   `toml:"enabled"`
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // used in daemon mode
}

// Default returns a Config with sensible default values
func Default() *Config {
	uid := os.Getuid()
	return &Config{
		Gesture: GestureConfig{
			DragLeft:      ActionSwitchPrevApp,
			DragRight:     ActionSwitchNextApp,
			DragUp:        ActionMissionControl,
			DragDown:      ActionShowDesktop,
			TriggerButton: desktop.ButtonMiddle,
			Threshold:     80,
			LaunchAtLogin: false,
			Language:      "auto",
		},
		Tracker: TrackerConfig{
			MaxEntries:      50,
			SuppressWindow:  Duration(2500 * time.Millisecond),
			PendingTTL:      Duration(10 * time.Second),
			ActivateTimeout: Duration(3 * time.Second),
			Blocklist: []string{
				"com.apple.UserNotificationCenter",
				"com.apple.Spotlight",
			},
		},
		Actions: defaultActions(runtime.GOOS),
		Daemon: DaemonConfig{
			PIDFile:  fmt.Sprintf("/tmp/middrag-%d.pid", uid),
			LockFile: fmt.Sprintf("/tmp/middrag-%d.lock", uid),
		},
		Database: DatabaseConfig{
			Path:    "",
			Enabled: true,
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 11000 + uid%10000,
		},
		Log: LogConfig{
			Level: "info",
			File:  fmt.Sprintf("/tmp/middrag-%d.log", uid),
		},
	}
}

func defaultActions(goos string) ActionsConfig {
	a := ActionsConfig{
		AppExposeShortcut:  desktop.Shortcut{Key: "Down", Modifiers: desktop.ModControl},
		SpaceLeftShortcut:  desktop.Shortcut{Key: "Left", Modifiers: desktop.ModControl},
		SpaceRightShortcut: desktop.Shortcut{Key: "Right", Modifiers: desktop.ModControl},
	}
	if goos == "darwin" {
		a.MissionControlCommand = []string{"open", "-a", "Mission Control"}
		a.LaunchpadCommand = []string{"open", "-a", "Launchpad"}
		a.ShowDesktopCommand = []string{"osascript", "-e", `tell application "System Events" to key code 103`}
		return a
	}
	a.MissionControlCommand = []string{"xdotool", "key", "super"}
	a.LaunchpadCommand = []string{"xdotool", "key", "super+a"}
	a.ShowDesktopCommand = []string{"wmctrl", "-k", "on"}
	return a
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, m := range []struct {
		name string
		a    Action
	}{
		{"drag_left", c.Gesture.DragLeft},
		{"drag_right", c.Gesture.DragRight},
		{"drag_up", c.Gesture.DragUp},
		{"drag_down", c.Gesture.DragDown},
	} {
		if !m.a.Valid() {
			return fmt.Errorf("%s: invalid action %d", m.name, int(m.a))
		}
	}

	if c.Gesture.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1 pixel, got %v", c.Gesture.Threshold)
	}

	if c.Gesture.TriggerButton < 1 || c.Gesture.TriggerButton > 32 {
		return fmt.Errorf("invalid trigger button %d", int(c.Gesture.TriggerButton))
	}

	if c.Gesture.Language != "auto" {
		if _, err := ParseLanguage(c.Gesture.Language); err != nil {
			return err
		}
	}

	if c.Tracker.MaxEntries < 1 {
		return fmt.Errorf("max entries must be positive, got %d", c.Tracker.MaxEntries)
	}

	if c.Tracker.SuppressWindow < 0 {
		return fmt.Errorf("suppress window cannot be negative")
	}

	if c.Tracker.PendingTTL < 0 {
		return fmt.Errorf("pending TTL cannot be negative")
	}

	if c.Tracker.ActivateTimeout <= 0 {
		return fmt.Errorf("activate timeout must be positive")
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if c.Daemon.LockFile == "" {
		return fmt.Errorf("lock file path cannot be empty")
	}

	return nil
}

// SetThreshold sets the drag threshold with validation
func (c *Config) SetThreshold(px float64) error {
	if px < 1 {
		return fmt.Errorf("threshold must be at least 1 pixel, got %v", px)
	}
	c.Gesture.Threshold = px
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// Commands returns the external helper invocations for system actions.
func (c *Config) Commands() desktop.Commands {
	return desktop.Commands{
		MissionControl: c.Actions.MissionControlCommand,
		Launchpad:      c.Actions.LaunchpadCommand,
		ShowDesktop:    c.Actions.ShowDesktopCommand,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Tracker.Blocklist = append([]string(nil), c.Tracker.Blocklist...)
	out.Actions.MissionControlCommand = append([]string(nil), c.Actions.MissionControlCommand...)
	out.Actions.LaunchpadCommand = append([]string(nil), c.Actions.LaunchpadCommand...)
	out.Actions.ShowDesktopCommand = append([]string(nil), c.Actions.ShowDesktopCommand...)
	return &out
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Gesture:
    Drag Left: %s
    Drag Right: %s
    Drag Up: %s
    Drag Down: %s
    Trigger Button: %s
    Threshold: %.0fpx
    Launch At Login: %v
    Language: %s
  Tracker:
    Max Entries: %d
    Suppress Window: %v
    Pending TTL: %v
    Blocklist: %s
  Actions:
    Mission Control: %s
    Launchpad: %s
    Show Desktop: %s
    App Expose: %s
    Space Left: %s
    Space Right: %s
  Daemon:
    PID File: %s
    Lock File: %s
  Database:
    Path: %s
    Enabled: %v
  Web:
    Host: %s
    Port: %d
  Log:
    Level: %s
    File: %s`,
		c.Gesture.DragLeft,
		c.Gesture.DragRight,
		c.Gesture.DragUp,
		c.Gesture.DragDown,
		c.Gesture.TriggerButton,
		c.Gesture.Threshold,
		c.Gesture.LaunchAtLogin,
		c.Gesture.Language,
		c.Tracker.MaxEntries,
		c.Tracker.SuppressWindow,
		c.Tracker.PendingTTL,
		strings.Join(c.Tracker.Blocklist, ", "),
		strings.Join(c.Actions.MissionControlCommand, " "),
		strings.Join(c.Actions.LaunchpadCommand, " "),
		strings.Join(c.Actions.ShowDesktopCommand, " "),
		c.Actions.AppExposeShortcut,
		c.Actions.SpaceLeftShortcut,
		c.Actions.SpaceRightShortcut,
		c.Daemon.PIDFile,
		c.Daemon.LockFile,
		c.Database.Path,
		c.Database.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Log.Level,
		c.Log.File,
	)
}

// Duration is a time.Duration written as "2.5s" in config files.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}
