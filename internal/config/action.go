package config

import (
	"fmt"
	"strings"
)

// Action is what a gesture direction is mapped to.
type Action int

const (
	ActionNone Action = iota
	ActionSwitchPrevApp
	ActionSwitchNextApp
	ActionMissionControl
	ActionAppExpose
	ActionShowDesktop
	ActionLaunchpad
	ActionSwitchSpaceLeft
	ActionSwitchSpaceRight
)

var actionNames = [...]string{
	ActionNone:             "none",
	ActionSwitchPrevApp:    "switch-prev-app",
	ActionSwitchNextApp:    "switch-next-app",
	ActionMissionControl:   "mission-control",
	ActionAppExpose:        "app-expose",
	ActionShowDesktop:      "show-desktop",
	ActionLaunchpad:        "launchpad",
	ActionSwitchSpaceLeft:  "switch-space-left",
	ActionSwitchSpaceRight: "switch-space-right",
}

// Actions lists every action in display order.
func Actions() []Action {
	out := make([]Action, len(actionNames))
	for i := range actionNames {
		out[i] = Action(i)
	}
	return out
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a >= 0 && int(a) < len(actionNames)
}

// IsNavigation reports whether a walks the app history.
func (a Action) IsNavigation() bool {
	return a == ActionSwitchPrevApp || a == ActionSwitchNextApp
}

// ParseAction parses the text form of an action. Underscores are accepted in place of dashes.
func ParseAction(s string) (Action, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
