// Package history keeps the most-recently-used order of foreground applications
// and walks it on request.
//
// history[0] is the most recent app. While the user walks the list with
// SwitchToPrevious and SwitchToNext the list is frozen so the cursor keeps
// pointing at the same entries: activations the tracker requested itself are
// recognised by their pending marker, and activations that follow a system
// gesture are dropped for the suppression window.
package history

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/pkg/desktop"
)

// Workspace is the part of the desktop the tracker needs.
type Workspace interface {
	IsTerminated(app desktop.App) bool
	Activate(ctx context.Context, app desktop.App) error
	ActivateDirect(app desktop.App) error
}

// Options tune a Tracker.
type Options struct {
	MaxEntries      int
	SuppressWindow  time.Duration
	PendingTTL      time.Duration // 0 keeps requests until answered
	ActivateTimeout time.Duration
	Blocklist       []string
	SelfID          string
	Now             func() time.Time
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MaxEntries:      50,
		SuppressWindow:  2500 * time.Millisecond,
		PendingTTL:      10 * time.Second,
		ActivateTimeout: 3 * time.Second,
		Blocklist:       []string{"com.apple.UserNotificationCenter", "com.apple.Spotlight"},
	}
}

type pendingRequest struct {
	token uint64
	id    string
	at    time.Time
}

// Tracker owns the MRU list and the navigation cursor.
type Tracker struct {
	ws  Workspace
	now func() time.Time

	mu            sync.Mutex
	opts          Options
	blocked       map[string]bool
	history       []desktop.App
	cursor        int
	pending       []pendingRequest // oldest first
	nextToken     uint64
	suppressUntil time.Time

	activations sync.WaitGroup
}

// New creates an empty tracker.
func New(ws Workspace, opts Options) *Tracker {
	t := &Tracker{ws: ws, now: opts.Now}
	if t.now == nil {
		t.now = time.Now
	}
	t.applyOptions(opts)
	return t
}

// SetOptions replaces the tuning. A smaller MaxEntries truncates the list.
func (t *Tracker) SetOptions(opts Options) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applyOptions(opts)
	if len(t.history) > t.opts.MaxEntries {
		t.history = t.history[:t.opts.MaxEntries]
	}
	if t.cursor >= len(t.history) {
		t.cursor = max(len(t.history)-1, 0)
	}
}

func (t *Tracker) applyOptions(opts Options) {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultOptions().MaxEntries
	}
	if opts.ActivateTimeout <= 0 {
		opts.ActivateTimeout = DefaultOptions().ActivateTimeout
	}
	if opts.Now == nil {
		opts.Now = t.now
	}
	t.now = opts.Now
	t.opts = opts
	t.blocked = make(map[string]bool, len(opts.Blocklist))
	for _, id := range opts.Blocklist {
		t.blocked[id] = true
	}
}

// trackable reports whether app may enter the history. Must hold t.mu.
func (t *Tracker) trackable(app desktop.App) bool {
	return app.ID != "" && app.Regular && app.ID != t.opts.SelfID && !t.blocked[app.ID]
}

// Seed replaces the history with the running apps, front first.
func (t *Tracker) Seed(running []desktop.App, front desktop.App) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool)
	var list []desktop.App
	if t.trackable(front) {
		list = append(list, front)
		seen[front.ID] = true
	}
	for _, app := range running {
		if !t.trackable(app) || seen[app.ID] {
			continue
		}
		seen[app.ID] = true
		list = append(list, app)
	}
	if len(list) > t.opts.MaxEntries {
		list = list[:t.opts.MaxEntries]
	}
	t.history = list
	t.cursor = 0
	t.pending = nil
	log.Debugf("History seeded with %d apps", len(list))
}

// SwitchToPrevious moves one step back in time, skipping apps that have quit.
// It returns false at the end of the history.
func (t *Tracker) SwitchToPrevious() bool {
	snapshot, cur := t.snapshot()

	// Liveness checks may hit the desktop, so they run without the lock.
	idx := -1
	for i := cur + 1; i < len(snapshot); i++ {
		if !t.ws.IsTerminated(snapshot[i]) {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Debug("Reached the end of the history")
		return false
	}

	target := snapshot[idx]
	if !t.commit(target) {
		return false
	}
	log.Infof("← %s [idx=%d]", target, idx)
	t.activate(target)
	return true
}

// SwitchToNext moves one step forward in time. It returns false at the most
// recent app.
func (t *Tracker) SwitchToNext() bool {
	snapshot, cur := t.snapshot()
	if cur == 0 || len(snapshot) == 0 {
		log.Debug("Already at the most recent app")
		return false
	}

	idx := cur - 1
	if t.ws.IsTerminated(snapshot[idx]) {
		// one step further, presumed live
		if idx == 0 {
			return false
		}
		idx--
	}

	target := snapshot[idx]
	if !t.commit(target) {
		return false
	}
	log.Infof("→ %s [idx=%d]", target, idx)
	t.activate(target)
	return true
}

func (t *Tracker) snapshot() ([]desktop.App, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]desktop.App(nil), t.history...), t.cursor
}

// commit marks target pending and moves the cursor onto it. The history may have
// changed since the snapshot, so the index is looked up again.
func (t *Tracker) commit(target desktop.App) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(target.ID)
	if idx < 0 {
		log.Debugf("%s left the history before it could be activated", target)
		return false
	}
	t.nextToken++
	t.pending = append(t.pending, pendingRequest{token: t.nextToken, id: target.ID, at: t.now()})
	t.cursor = idx
	return true
}

func (t *Tracker) indexOf(id string) int {
	for i, app := range t.history {
		if app.ID == id {
			return i
		}
	}
	return -1
}

// activate asks the desktop to raise app, falling back to the direct path.
func (t *Tracker) activate(app desktop.App) {
	t.mu.Lock()
	timeout := t.opts.ActivateTimeout
	t.mu.Unlock()

	t.activations.Add(1)
	go func() {
		defer t.activations.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := t.ws.Activate(ctx, app)
		if err == nil {
			return
		}
		log.Warnf("Activate %s failed: %v", app, err)
		if err := t.ws.ActivateDirect(app); err != nil {
			log.Errorf("Direct activation of %s failed: %v", app, err)
		}
	}()
}

// Wait blocks until in-flight activation requests have finished.
func (t *Tracker) Wait() {
	t.activations.Wait()
}

// WillFireSystemGesture opens the suppression window. Call it right before
// triggering a system action that can make unrelated apps announce themselves.
func (t *Tracker) WillFireSystemGesture() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressUntil = t.now().Add(t.opts.SuppressWindow)
}

// HandleActivation processes one "app became active" notification.
func (t *Tracker) HandleActivation(app desktop.App) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.trackable(app) {
		return
	}

	now := t.now()
	t.expirePending(now)

	if token, ok := t.consumePending(app.ID); ok {
		log.Debugf("Activation of %s answered request #%d", app, token)
		return
	}

	if now.Before(t.suppressUntil) {
		log.Debugf("Ignoring activation of %s after system gesture", app)
		return
	}

	if i := t.indexOf(app.ID); i >= 0 {
		t.history = append(t.history[:i], t.history[i+1:]...)
	}
	t.history = append([]desktop.App{app}, t.history...)
	if len(t.history) > t.opts.MaxEntries {
		t.history = t.history[:t.opts.MaxEntries]
	}
	t.cursor = 0
}

// consumePending removes the oldest request for id together with every older
// request, which the window manager skipped. Newer requests stay pending for
// their own echoes. Must hold t.mu.
func (t *Tracker) consumePending(id string) (uint64, bool) {
	for i, p := range t.pending {
		if p.id == id {
			t.pending = append([]pendingRequest(nil), t.pending[i+1:]...)
			return p.token, true
		}
	}
	return 0, false
}

// expirePending drops requests nobody answered. Must hold t.mu.
func (t *Tracker) expirePending(now time.Time) {
	if t.opts.PendingTTL <= 0 {
		return
	}
	n := 0
	for _, p := range t.pending {
		if now.Sub(p.at) < t.opts.PendingTTL {
			t.pending[n] = p
			n++
		}
	}
	t.pending = t.pending[:n]
}

// Run feeds notifications into HandleActivation until ctx is done or the
// channel is closed.
func (t *Tracker) Run(ctx context.Context, notifications <-chan desktop.App) {
	for {
		select {
		case <-ctx.Done():
			return
		case app, ok := <-notifications:
			if !ok {
				return
			}
			t.HandleActivation(app)
		}
	}
}

// State is a point-in-time copy of the tracker.
type State struct {
	History       []desktop.App `json:"history"`
	Cursor        int           `json:"cursor"`
	Pending       []string      `json:"pending"`
	SuppressUntil time.Time     `json:"suppress_until"`
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := State{
		History:       append([]desktop.App(nil), t.history...),
		Cursor:        t.cursor,
		SuppressUntil: t.suppressUntil,
	}
	for _, p := range t.pending {
		s.Pending = append(s.Pending, p.id)
	}
	return s
}
