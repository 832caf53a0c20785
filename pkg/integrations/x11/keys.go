package x11

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jezek/xgb/xproto"

	"github.com/middrag/middrag/pkg/desktop"
)

var namedKeysyms = map[string]xproto.Keysym{
	"BackSpace": 0xff08,
	"Tab":       0xff09,
	"Return":    0xff0d,
	"Escape":    0xff1b,
	"Delete":    0xffff,
	"Home":      0xff50,
	"Left":      0xff51,
	"Up":        0xff52,
	"Right":     0xff53,
	"Down":      0xff54,
	"Page_Up":   0xff55,
	"Page_Down": 0xff56,
	"End":       0xff57,
	"Insert":    0xff63,
	"space":     0x0020,
	"Control_L": 0xffe3,
	"Shift_L":   0xffe1,
	"Alt_L":     0xffe9,
	"Super_L":   0xffeb,
}

var modifierKeysyms = []struct {
	mod    desktop.Modifier
	keysym string
}{
	{desktop.ModControl, "Control_L"},
	{desktop.ModShift, "Shift_L"},
	{desktop.ModAlt, "Alt_L"},
	{desktop.ModSuper, "Super_L"},
}

// keysymFor maps an X11 keysym name to its value.
func keysymFor(name string) (xproto.Keysym, error) {
	if ks, ok := namedKeysyms[name]; ok {
		return ks, nil
	}
	if len(name) >= 2 && (name[0] == 'F' || name[0] == 'f') {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 35 {
			return xproto.Keysym(0xffbe + n - 1), nil
		}
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(strings.ToLower(name))
		if r >= 0x20 && r <= 0x7e {
			return xproto.Keysym(r), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// shortcutKeysyms returns the keys to press in order: modifiers, then the key.
func shortcutKeysyms(sc desktop.Shortcut) ([]xproto.Keysym, error) {
	var out []xproto.Keysym
	for _, m := range modifierKeysyms {
		if sc.Has(m.mod) {
			out = append(out, namedKeysyms[m.keysym])
		}
	}
	key, err := keysymFor(sc.Key)
	if err != nil {
		return nil, err
	}
	return append(out, key), nil
}

// keymap is the server keyboard mapping.
type keymap struct {
	min     xproto.Keycode
	perCode int
	syms    []xproto.Keysym
}

func (c *Client) keymap() (*keymap, error) {
	lo, hi := c.setup.MinKeycode, c.setup.MaxKeycode
	reply, err := xproto.GetKeyboardMapping(c.conn, lo, byte(hi-lo+1)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to read keyboard mapping: %w", err)
	}
	return &keymap{min: lo, perCode: int(reply.KeysymsPerKeycode), syms: reply.Keysyms}, nil
}

// keycode returns the first keycode producing ks.
func (k *keymap) keycode(ks xproto.Keysym) (xproto.Keycode, bool) {
	if k.perCode == 0 {
		return 0, false
	}
	for i, s := range k.syms {
		if s == ks {
			return k.min + xproto.Keycode(i/k.perCode), true
		}
	}
	return 0, false
}
