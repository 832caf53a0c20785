package x11

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
	"github.com/pkg/errors"

	"github.com/middrag/middrag/pkg/desktop"
)

// Actions implements desktop.SystemActions. Surfaces run the configured helper
// commands; shortcuts are synthesized with XTEST.
type Actions struct {
	client   *Client
	commands func() desktop.Commands

	once    sync.Once
	xtestOK error
}

// NewActions reads the helper commands from commands on every action so edits
// apply without a restart.
func NewActions(client *Client, commands func() desktop.Commands) *Actions {
	return &Actions{client: client, commands: commands}
}

func (a *Actions) OpenSurface(s desktop.Surface) error {
	cmds := a.commands()
	var argv []string
	switch s {
	case desktop.SurfaceMissionControl:
		argv = cmds.MissionControl
	case desktop.SurfaceLaunchpad:
		argv = cmds.Launchpad
	}
	if len(argv) == 0 {
		return errors.Wrapf(desktop.ErrUnsupported, "no command configured for %s", s)
	}
	return desktop.RunDetached(argv)
}

func (a *Actions) PostShortcut(sc desktop.Shortcut) error {
	a.once.Do(func() { a.xtestOK = xtest.Init(a.client.conn) })
	if a.xtestOK != nil {
		return errors.Wrap(desktop.ErrUnsupported, "XTEST extension unavailable: "+a.xtestOK.Error())
	}

	syms, err := shortcutKeysyms(sc)
	if err != nil {
		return err
	}
	km, err := a.client.keymap()
	if err != nil {
		return err
	}
	codes := make([]xproto.Keycode, len(syms))
	for i, ks := range syms {
		code, ok := km.keycode(ks)
		if !ok {
			return fmt.Errorf("no keycode for keysym 0x%x in %s", uint32(ks), sc)
		}
		codes[i] = code
	}

	for _, code := range codes {
		if err := a.fake(xproto.KeyPress, code); err != nil {
			return err
		}
	}
	for i := len(codes) - 1; i >= 0; i-- {
		if err := a.fake(xproto.KeyRelease, codes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Actions) fake(typ byte, code xproto.Keycode) error {
	err := xtest.FakeInputChecked(a.client.conn, typ, byte(code), 0, a.client.root, 0, 0, 0).Check()
	return errors.Wrap(err, "failed to synthesize key event")
}

// ShowDesktop runs the configured helper, or toggles _NET_SHOWING_DESKTOP when
// none is set.
func (a *Actions) ShowDesktop() error {
	if argv := a.commands().ShowDesktop; len(argv) > 0 {
		return desktop.RunDetached(argv)
	}
	data, err := a.client.getProperty(a.client.root, a.client.atoms["_NET_SHOWING_DESKTOP"], xproto.AtomCardinal, 1)
	showing := err == nil && len(data) >= 4 && data[0] != 0
	var want uint32 = 1
	if showing {
		want = 0
	}
	return errors.Wrap(a.client.clientMessage(a.client.root, "_NET_SHOWING_DESKTOP", want), "failed to toggle desktop")
}
