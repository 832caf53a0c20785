// Package desktoptest provides in-memory desktop backends for tests.
package desktoptest

import (
	"context"
	"sync"

	"github.com/middrag/middrag/pkg/desktop"
)

// Tap is a PointerTap fed by the test.
type Tap struct {
	events chan desktop.PointerEvent

	mu      sync.Mutex
	enabled int
	closed  bool
}

// NewTap returns an open tap with a buffered event stream.
func NewTap() *Tap {
	return &Tap{events: make(chan desktop.PointerEvent, 64)}
}

// Send delivers ev to the tap consumer.
func (t *Tap) Send(ev desktop.PointerEvent) {
	t.events <- ev
}

func (t *Tap) Events() <-chan desktop.PointerEvent { return t.events }

func (t *Tap) Enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled++
	return nil
}

// EnableCount returns how many times Enable was called.
func (t *Tap) EnableCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Tap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	return nil
}

// Closed reports whether Close was called.
func (t *Tap) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Tapper hands out Taps, or Err when set.
type Tapper struct {
	Err error

	mu       sync.Mutex
	taps     []*Tap
	installs []desktop.Button
}

// SetErr changes Err while taps may be installed concurrently.
func (t *Tapper) SetErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Err = err
}

func (t *Tapper) InstallPointerTap(button desktop.Button) (desktop.PointerTap, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.installs = append(t.installs, button)
	if t.Err != nil {
		return nil, t.Err
	}
	tap := NewTap()
	t.taps = append(t.taps, tap)
	return tap, nil
}

// Last returns the most recently installed tap.
func (t *Tapper) Last() *Tap {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.taps) == 0 {
		return nil
	}
	return t.taps[len(t.taps)-1]
}

// Installs returns the buttons passed to InstallPointerTap.
func (t *Tapper) Installs() []desktop.Button {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]desktop.Button(nil), t.installs...)
}

// Workspace is a scripted desktop.Workspace.
type Workspace struct {
	Self        string
	ActivateErr error
	DirectErr   error

	mu         sync.Mutex
	apps       []desktop.App
	front      desktop.App
	terminated map[string]bool
	activated  []string
	direct     []string
	notify     chan desktop.App
}

// NewWorkspace returns a workspace with apps running, the first one frontmost.
func NewWorkspace(apps ...desktop.App) *Workspace {
	w := &Workspace{
		Self:       "middrag",
		terminated: make(map[string]bool),
		notify:     make(chan desktop.App, 64),
	}
	w.apps = append(w.apps, apps...)
	if len(apps) > 0 {
		w.front = apps[0]
	}
	return w
}

// Terminate marks id as no longer running.
func (w *Workspace) Terminate(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.terminated[id] = true
}

// Activated returns the IDs passed to Activate, in order.
func (w *Workspace) Activated() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.activated...)
}

// DirectActivated returns the IDs passed to ActivateDirect, in order.
func (w *Workspace) DirectActivated() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.direct...)
}

// Notify queues an activation notification.
func (w *Workspace) Notify(app desktop.App) {
	w.notify <- app
}

func (w *Workspace) RunningApps() ([]desktop.App, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []desktop.App
	for _, a := range w.apps {
		if !w.terminated[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (w *Workspace) FrontmostApp() (desktop.App, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.front, nil
}

func (w *Workspace) IsTerminated(app desktop.App) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminated[app.ID]
}

func (w *Workspace) Activate(_ context.Context, app desktop.App) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activated = append(w.activated, app.ID)
	if w.ActivateErr == nil {
		w.front = app
	}
	return w.ActivateErr
}

func (w *Workspace) ActivateDirect(app desktop.App) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.direct = append(w.direct, app.ID)
	if w.DirectErr == nil {
		w.front = app
	}
	return w.DirectErr
}

func (w *Workspace) Notifications(ctx context.Context) (<-chan desktop.App, error) {
	out := make(chan desktop.App)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case app := <-w.notify:
				select {
				case out <- app:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (w *Workspace) SelfID() string { return w.Self }

// Actions records system actions.
type Actions struct {
	Err error

	mu        sync.Mutex
	surfaces  []desktop.Surface
	shortcuts []desktop.Shortcut
	desktops  int
}

func (a *Actions) OpenSurface(s desktop.Surface) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surfaces = append(a.surfaces, s)
	return a.Err
}

func (a *Actions) PostShortcut(sc desktop.Shortcut) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shortcuts = append(a.shortcuts, sc)
	return a.Err
}

func (a *Actions) ShowDesktop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.desktops++
	return a.Err
}

// Surfaces returns opened surfaces in order.
func (a *Actions) Surfaces() []desktop.Surface {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]desktop.Surface(nil), a.surfaces...)
}

// Shortcuts returns posted shortcuts in order.
func (a *Actions) Shortcuts() []desktop.Shortcut {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]desktop.Shortcut(nil), a.shortcuts...)
}

// DesktopCount returns how many times ShowDesktop was called.
func (a *Actions) DesktopCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.desktops
}
