package desktop

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of keyboard modifiers.
type Modifier uint8

const (
	ModControl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

var modifierNames = []struct {
	mod   Modifier
	names []string
}{
	{ModControl, []string{"ctrl", "control"}},
	{ModShift, []string{"shift"}},
	{ModAlt, []string{"alt", "option", "opt"}},
	{ModSuper, []string{"super", "cmd", "command", "meta", "win"}},
}

// Shortcut is a key name plus modifiers, e.g. ctrl+Down.
// Key names follow X11 keysym spelling ("Left", "Page_Up", "F3", "a").
type Shortcut struct {
	Key       string
	Modifiers Modifier
}

// ParseShortcut parses "mod+mod+Key". The key part keeps its case.
func ParseShortcut(s string) (Shortcut, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Shortcut{}, fmt.Errorf("empty shortcut")
	}
	parts := strings.Split(s, "+")
	var sc Shortcut
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q", s)
		}
		if i == len(parts)-1 {
			sc.Key = part
			break
		}
		mod, ok := lookupModifier(part)
		if !ok {
			return Shortcut{}, fmt.Errorf("unknown modifier %q in shortcut %q", part, s)
		}
		sc.Modifiers |= mod
	}
	return sc, nil
}

func lookupModifier(name string) (Modifier, bool) {
	name = strings.ToLower(name)
	for _, m := range modifierNames {
		for _, n := range m.names {
			if n == name {
				return m.mod, true
			}
		}
	}
	return 0, false
}

// Has reports whether m is set.
func (sc Shortcut) Has(m Modifier) bool {
	return sc.Modifiers&m != 0
}

func (sc Shortcut) String() string {
	var b strings.Builder
	for _, m := range modifierNames {
		if sc.Has(m.mod) {
			b.WriteString(m.names[0])
			b.WriteByte('+')
		}
	}
	b.WriteString(sc.Key)
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (sc Shortcut) MarshalText() ([]byte, error) {
	return []byte(sc.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (sc *Shortcut) UnmarshalText(text []byte) error {
	parsed, err := ParseShortcut(string(text))
	if err != nil {
		return err
	}
	*sc = parsed
	return nil
}
