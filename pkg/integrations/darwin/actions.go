package darwin

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/middrag/middrag/pkg/desktop"
)

// Virtual key codes of the ANSI layout.
var keyCodes = map[string]int{
	"Return": 36, "Tab": 48, "space": 49, "BackSpace": 51, "Escape": 53,
	"F1": 122, "F2": 120, "F3": 99, "F4": 118, "F5": 96, "F6": 97,
	"F7": 98, "F8": 100, "F9": 101, "F10": 109, "F11": 103, "F12": 111,
	"Home": 115, "Page_Up": 116, "Delete": 117, "End": 119, "Page_Down": 121,
	"Left": 123, "Right": 124, "Down": 125, "Up": 126,
}

var modifierClauses = []struct {
	mod    desktop.Modifier
	clause string
}{
	{desktop.ModControl, "control down"},
	{desktop.ModShift, "shift down"},
	{desktop.ModAlt, "option down"},
	{desktop.ModSuper, "command down"},
}

// Actions implements desktop.SystemActions.
type Actions struct {
	run      Runner
	commands func() desktop.Commands
}

// NewActions reads the helper commands from commands on every action. A nil run
// uses os/exec.
func NewActions(run Runner, commands func() desktop.Commands) *Actions {
	if run == nil {
		run = execRunner
	}
	return &Actions{run: run, commands: commands}
}

func (a *Actions) OpenSurface(s desktop.Surface) error {
	cmds := a.commands()
	argv := cmds.MissionControl
	if s == desktop.SurfaceLaunchpad {
		argv = cmds.Launchpad
	}
	return a.start(argv, s.String())
}

func (a *Actions) ShowDesktop() error {
	return a.start(a.commands().ShowDesktop, "show desktop")
}

func (a *Actions) start(argv []string, what string) error {
	if len(argv) == 0 {
		return errors.Wrapf(desktop.ErrUnsupported, "no command configured for %s", what)
	}
	// helpers like open return at once, so they run synchronously
	if _, err := a.run(context.Background(), argv[0], argv[1:]...); err != nil {
		return errors.Wrapf(err, "failed to run %s", argv[0])
	}
	return nil
}

// PostShortcut sends the shortcut through System Events.
func (a *Actions) PostShortcut(sc desktop.Shortcut) error {
	script, err := shortcutScript(sc)
	if err != nil {
		return err
	}
	if _, err := a.run(context.Background(), "osascript", "-e", script); err != nil {
		return errors.Wrapf(err, "failed to post %s", sc)
	}
	return nil
}

func shortcutScript(sc desktop.Shortcut) (string, error) {
	var press string
	if code, ok := keyCodes[sc.Key]; ok {
		press = fmt.Sprintf("key code %d", code)
	} else if len(sc.Key) == 1 {
		press = "keystroke " + appleScriptString(strings.ToLower(sc.Key))
	} else {
		return "", fmt.Errorf("unknown key %q", sc.Key)
	}

	var mods []string
	for _, m := range modifierClauses {
		if sc.Has(m.mod) {
			mods = append(mods, m.clause)
		}
	}
	if len(mods) > 0 {
		press += " using {" + strings.Join(mods, ", ") + "}"
	}
	return `tell application "System Events" to ` + press, nil
}
