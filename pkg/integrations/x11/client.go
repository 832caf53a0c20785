// Package x11 implements the desktop interfaces on an EWMH-compliant X11 session.
package x11

import (
	"encoding/binary"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_CLIENT_LIST_STACKING",
	"_NET_SHOWING_DESKTOP",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"_NET_WM_STATE",
	"_NET_WM_STATE_SKIP_TASKBAR",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_NORMAL",
	"_NET_WM_WINDOW_TYPE_DIALOG",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Client is one connection to the X server.
type Client struct {
	conn  *xgb.Conn
	root  xproto.Window
	setup *xproto.SetupInfo
	atoms map[string]xproto.Atom
}

// Connect opens display, or $DISPLAY when display is empty.
func Connect(display string) (*Client, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	client := &Client{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		setup: setup,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern %s", name)
		}
		client.atoms[name] = reply.Atom
	}

	return client, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) getProperty(window xproto.Window, atom xproto.Atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *Client) activeWindow() xproto.Window {
	data, err := c.getProperty(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0
	}
	if w := decodeWindows(data); len(w) > 0 {
		return w[0]
	}
	return 0
}

// clientWindows returns the managed windows, topmost first.
func (c *Client) clientWindows() ([]xproto.Window, error) {
	data, err := c.getProperty(c.root, c.atoms["_NET_CLIENT_LIST_STACKING"], xproto.AtomWindow, 1024)
	if err == nil && len(data) > 0 {
		windows := decodeWindows(data)
		for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
			windows[i], windows[j] = windows[j], windows[i]
		}
		return windows, nil
	}

	data, err = c.getProperty(c.root, c.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 1024)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read client list")
	}
	return decodeWindows(data), nil
}

func (c *Client) windowName(window xproto.Window) string {
	data, err := c.getProperty(window, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = c.getProperty(window, c.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (c *Client) windowClass(window xproto.Window) (instance, class string) {
	data, err := c.getProperty(window, c.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil {
		return "", ""
	}
	return parseWMClass(data)
}

func (c *Client) windowPID(window xproto.Window) uint32 {
	data, err := c.getProperty(window, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// regular reports whether window is an ordinary application window.
func (c *Client) regular(window xproto.Window) bool {
	types, _ := c.getProperty(window, c.atoms["_NET_WM_WINDOW_TYPE"], xproto.AtomAtom, 16)
	states, _ := c.getProperty(window, c.atoms["_NET_WM_STATE"], xproto.AtomAtom, 16)
	return isRegular(decodeAtoms(types), decodeAtoms(states), c.atoms)
}

// clientMessage sends an EWMH request about window to the window manager.
func (c *Client) clientMessage(window xproto.Window, atom string, data ...uint32) error {
	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   c.atoms[atom],
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	return xproto.SendEventChecked(c.conn, false, c.root, mask, string(ev.Bytes())).Check()
}

// parseWMClass splits the two NUL-terminated WM_CLASS strings.
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func decodeWindows(data []byte) []xproto.Window {
	out := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		if w := xproto.Window(binary.LittleEndian.Uint32(data[i:])); w != 0 {
			out = append(out, w)
		}
	}
	return out
}

func decodeAtoms(data []byte) []xproto.Atom {
	out := make([]xproto.Atom, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		out = append(out, xproto.Atom(binary.LittleEndian.Uint32(data[i:])))
	}
	return out
}

func isRegular(types, states []xproto.Atom, atoms map[string]xproto.Atom) bool {
	for _, s := range states {
		if s == atoms["_NET_WM_STATE_SKIP_TASKBAR"] {
			return false
		}
	}
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == atoms["_NET_WM_WINDOW_TYPE_NORMAL"] || t == atoms["_NET_WM_WINDOW_TYPE_DIALOG"] {
			return true
		}
	}
	return false
}
