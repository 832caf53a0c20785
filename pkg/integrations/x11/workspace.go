package x11

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/pkg/desktop"
	"github.com/middrag/middrag/pkg/integrations/process"
)

const (
	selfClass       = "middrag"
	windowCacheSize = 512
	activationPoll  = 20 * time.Millisecond
)

// Workspace implements desktop.Workspace with EWMH properties. An App is a
// WM_CLASS class; its Window is the topmost window of that class.
type Workspace struct {
	client  *Client
	display string
	windows *lru.Cache[xproto.Window, desktop.App]
}

// NewWorkspace uses client for requests. display is reopened for the
// notification stream.
func NewWorkspace(client *Client, display string) (*Workspace, error) {
	cache, err := lru.New[xproto.Window, desktop.App](windowCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create window cache")
	}
	return &Workspace{client: client, display: display, windows: cache}, nil
}

// appFor resolves window to its application. Properties that never change for
// a window are cached.
func (w *Workspace) appFor(window xproto.Window) (desktop.App, bool) {
	if window == 0 {
		return desktop.App{}, false
	}
	if app, ok := w.windows.Get(window); ok {
		return app, app.ID != ""
	}

	instance, class := w.client.windowClass(window)
	app := desktop.App{
		ID:      appID(instance, class),
		Name:    appName(instance, class, w.client.windowName(window)),
		PID:     int(w.client.windowPID(window)),
		Window:  uint32(window),
		Regular: w.client.regular(window),
	}
	if app.PID > 0 {
		if info, err := process.Read(app.PID); err == nil {
			app.Path = info.Exe
			if app.ID == "" {
				app.ID = info.Name
				app.Name = info.Name
			}
		}
	}
	w.windows.Add(window, app)
	return app, app.ID != ""
}

func appID(instance, class string) string {
	if class != "" {
		return class
	}
	return instance
}

func appName(instance, class, title string) string {
	switch {
	case class != "":
		return class
	case instance != "":
		return instance
	}
	return title
}

// apps returns one App per class, topmost first. An app is represented by its
// topmost regular window when it has one.
func (w *Workspace) apps() ([]desktop.App, error) {
	windows, err := w.client.clientWindows()
	if err != nil {
		return nil, err
	}

	live := make(map[xproto.Window]bool, len(windows))
	var all []desktop.App
	for _, win := range windows {
		live[win] = true
		if app, ok := w.appFor(win); ok {
			all = append(all, app)
		}
	}

	for _, win := range w.windows.Keys() {
		if !live[win] {
			w.windows.Remove(win)
		}
	}
	return onePerClass(all), nil
}

// onePerClass keeps the first regular window of each app, or its first window
// when none is regular. Order follows the first window of each app.
func onePerClass(windows []desktop.App) []desktop.App {
	index := make(map[string]int)
	var out []desktop.App
	for _, app := range windows {
		i, seen := index[app.ID]
		switch {
		case !seen:
			index[app.ID] = len(out)
			out = append(out, app)
		case !out[i].Regular && app.Regular:
			out[i] = app
		}
	}
	return out
}

func (w *Workspace) RunningApps() ([]desktop.App, error) {
	return w.apps()
}

func (w *Workspace) FrontmostApp() (desktop.App, error) {
	app, ok := w.appFor(w.client.activeWindow())
	if !ok {
		return desktop.App{}, fmt.Errorf("no active window")
	}
	return app, nil
}

// IsTerminated reports whether no window of app's class is left.
func (w *Workspace) IsTerminated(app desktop.App) bool {
	return terminated(app, sameProcess, func() bool {
		_, ok := w.windowOf(app)
		return ok
	})
}

// terminated decides liveness by app ID. A process still known to be app's
// answers without a window lookup; a dead PID proves nothing, since other
// processes may own windows of the same class.
func terminated(app desktop.App, running func(desktop.App) bool, hasWindow func() bool) bool {
	if running(app) {
		return false
	}
	return !hasWindow()
}

// sameProcess reports whether app's PID still runs app's executable.
func sameProcess(app desktop.App) bool {
	if app.PID <= 0 || app.Path == "" || !process.Available() || !process.Alive(app.PID) {
		return false
	}
	info, err := process.Read(app.PID)
	return err == nil && info.Exe == app.Path
}

// windowOf returns the window to raise for app: its remembered window if that
// is still managed, otherwise the topmost window of its class.
func (w *Workspace) windowOf(app desktop.App) (xproto.Window, bool) {
	windows, err := w.client.clientWindows()
	if err != nil {
		log.Debugf("Client list unavailable: %v", err)
		return 0, false
	}
	var first xproto.Window
	for _, win := range windows {
		got, ok := w.appFor(win)
		if !ok || !got.Same(app) {
			continue
		}
		if uint32(win) == app.Window {
			return win, true
		}
		if first == 0 {
			first = win
		}
	}
	return first, first != 0
}

// Activate asks the window manager to activate app and waits until it reports
// the change or ctx is done.
func (w *Workspace) Activate(ctx context.Context, app desktop.App) error {
	win, ok := w.windowOf(app)
	if !ok {
		return fmt.Errorf("%s has no window", app)
	}

	// source 2: request from a pager, which window managers do not second-guess
	err := w.client.clientMessage(win, "_NET_ACTIVE_WINDOW", 2, xproto.TimeCurrentTime, uint32(w.client.activeWindow()))
	if err != nil {
		return errors.Wrap(err, "failed to request activation")
	}

	ticker := time.NewTicker(activationPoll)
	defer ticker.Stop()
	for {
		if active, ok := w.appFor(w.client.activeWindow()); ok && active.Same(app) {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "%s did not become active", app)
		case <-ticker.C:
		}
	}
}

// ActivateDirect maps, raises and focuses the window without the window manager.
// An app without windows is started again from its executable.
func (w *Workspace) ActivateDirect(app desktop.App) error {
	win, ok := w.windowOf(app)
	if !ok {
		if app.Path == "" {
			return fmt.Errorf("%s has no window", app)
		}
		log.Infof("%s has no window, relaunching %s", app, app.Path)
		return desktop.RunDetached([]string{app.Path})
	}
	conn := w.client.conn
	if err := xproto.MapWindowChecked(conn, win).Check(); err != nil {
		return errors.Wrap(err, "failed to map window")
	}
	if err := xproto.ConfigureWindowChecked(conn, win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check(); err != nil {
		return errors.Wrap(err, "failed to raise window")
	}
	if err := xproto.SetInputFocusChecked(conn, xproto.InputFocusParent, win, xproto.TimeCurrentTime).Check(); err != nil {
		return errors.Wrap(err, "failed to focus window")
	}
	return nil
}

// Notifications streams the app of every new active window. Repeats of the same
// app are collapsed, so switching between two windows of one app is silent.
func (w *Workspace) Notifications(ctx context.Context) (<-chan desktop.App, error) {
	conn, err := xgb.NewConnDisplay(w.display)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event connection")
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root
	err = xproto.ChangeWindowAttributesChecked(conn, root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to select property events")
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	out := make(chan desktop.App)
	activeAtom := w.client.atoms["_NET_ACTIVE_WINDOW"]
	go func() {
		defer close(out)
		var last string
		for {
			ev, xerr := conn.WaitForEvent()
			if ev == nil && xerr == nil {
				return
			}
			if xerr != nil {
				log.Debugf("X error on event connection: %v", xerr)
				continue
			}
			pn, ok := ev.(xproto.PropertyNotifyEvent)
			if !ok || pn.Atom != activeAtom {
				continue
			}
			app, ok := w.appFor(w.client.activeWindow())
			if !ok || app.ID == last {
				continue
			}
			last = app.ID
			select {
			case out <- app:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (w *Workspace) SelfID() string { return selfClass }
