// Package autostart installs and removes the launch-at-login entry.
package autostart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"howett.net/plist"
)

const (
	desktopFile = "middrag.desktop"
	agentLabel  = "io.github.middrag"
)

// Manager installs or removes the login entry.
type Manager interface {
	Enable() error
	Disable() error
	Enabled() bool
	Path() string
}

// New returns the manager for the current OS. args is the command line to launch.
func New(args []string) (Manager, error) {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to locate config directory")
		}
		return &XDG{Dir: filepath.Join(dir, "autostart"), Args: args}, nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to locate home directory")
		}
		return &LaunchAgent{
			Dir:       filepath.Join(home, "Library", "LaunchAgents"),
			Label:     agentLabel,
			Args:      args,
			Launchctl: true,
		}, nil
	}
	return nil, fmt.Errorf("launch at login is not supported on %s", runtime.GOOS)
}

// Apply brings the entry in line with enabled.
func Apply(m Manager, enabled bool) error {
	if enabled == m.Enabled() {
		return nil
	}
	if enabled {
		log.Infof("Installing login entry %s", m.Path())
		return m.Enable()
	}
	log.Infof("Removing login entry %s", m.Path())
	return m.Disable()
}

// XDG manages a freedesktop autostart entry.
type XDG struct {
	Dir  string
	Args []string
}

func (x *XDG) Path() string {
	return filepath.Join(x.Dir, desktopFile)
}

func (x *XDG) Enable() error {
	if len(x.Args) == 0 {
		return errors.New("no command to autostart")
	}
	if err := os.MkdirAll(x.Dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create autostart directory")
	}

	f := ini.Empty()
	sec, err := f.NewSection("Desktop Entry")
	if err != nil {
		return errors.Wrap(err, "failed to build desktop entry")
	}
	for _, kv := range [][2]string{
		{"Type", "Application"},
		{"Name", "middrag"},
		{"Comment", "Middle-drag gestures"},
		{"Exec", execLine(x.Args)},
		{"Terminal", "false"},
		{"NoDisplay", "true"},
		{"X-GNOME-Autostart-enabled", "true"},
	} {
		if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
			return errors.Wrapf(err, "failed to set %s", kv[0])
		}
	}

	return errors.Wrap(f.SaveTo(x.Path()), "failed to write desktop entry")
}

func (x *XDG) Disable() error {
	if err := os.Remove(x.Path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove desktop entry")
	}
	return nil
}

func (x *XDG) Enabled() bool {
	f, err := ini.Load(x.Path())
	if err != nil {
		return false
	}
	sec := f.Section("Desktop Entry")
	if sec.Key("Hidden").MustBool(false) {
		return false
	}
	return sec.Key("X-GNOME-Autostart-enabled").MustBool(true)
}

// execLine quotes arguments per the desktop entry Exec rules.
func execLine(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"'\\$`") {
			r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
			a = `"` + r.Replace(a) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// LaunchAgent manages a per-user launchd agent.
type LaunchAgent struct {
	Dir       string
	Label     string
	Args      []string
	Launchctl bool // load and unload through launchctl
}

type agentPlist struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	ProcessType      string   `plist:"ProcessType"`
}

func (a *LaunchAgent) Path() string {
	return filepath.Join(a.Dir, a.Label+".plist")
}

func (a *LaunchAgent) Enable() error {
	if len(a.Args) == 0 {
		return errors.New("no command to autostart")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create LaunchAgents directory")
	}

	data, err := plist.MarshalIndent(agentPlist{
		Label:            a.Label,
		ProgramArguments: a.Args,
		RunAtLoad:        true,
		ProcessType:      "Interactive",
	}, plist.XMLFormat, "\t")
	if err != nil {
		return errors.Wrap(err, "failed to encode launch agent")
	}
	if err := os.WriteFile(a.Path(), data, 0644); err != nil {
		return errors.Wrap(err, "failed to write launch agent")
	}

	if a.Launchctl {
		if out, err := exec.Command("launchctl", "load", "-w", a.Path()).CombinedOutput(); err != nil {
			log.Warnf("launchctl load failed: %v: %s", err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

func (a *LaunchAgent) Disable() error {
	if a.Launchctl && a.Enabled() {
		if out, err := exec.Command("launchctl", "unload", "-w", a.Path()).CombinedOutput(); err != nil {
			log.Warnf("launchctl unload failed: %v: %s", err, strings.TrimSpace(string(out)))
		}
	}
	if err := os.Remove(a.Path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove launch agent")
	}
	return nil
}

func (a *LaunchAgent) Enabled() bool {
	data, err := os.ReadFile(a.Path())
	if err != nil {
		return false
	}
	var p agentPlist
	if _, err := plist.Unmarshal(data, &p); err != nil {
		return false
	}
	return p.Label == a.Label && p.RunAtLoad
}
