package x11

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/pkg/desktop"
)

const (
	pollInterval = 8 * time.Millisecond
	tapBuffer    = 64
)

// buttonMask returns the QueryPointer state bit for b. Only buttons 1-5 are
// reported by the core protocol.
func buttonMask(b desktop.Button) (uint16, bool) {
	switch b {
	case 1:
		return xproto.KeyButMaskButton1, true
	case 2:
		return xproto.KeyButMaskButton2, true
	case 3:
		return xproto.KeyButMaskButton3, true
	case 4:
		return xproto.KeyButMaskButton4, true
	case 5:
		return xproto.KeyButMaskButton5, true
	}
	return 0, false
}

// sampler turns successive pointer states into events.
type sampler struct {
	button desktop.Button
	mask   uint16
	down   bool
	x, y   int16
}

func (s *sampler) step(state uint16, x, y int16) (desktop.PointerEvent, bool) {
	down := state&s.mask != 0
	moved := x != s.x || y != s.y
	s.x, s.y = x, y

	ev := desktop.PointerEvent{Button: s.button, X: float64(x), Y: float64(y)}
	switch {
	case down && !s.down:
		ev.Type = desktop.ButtonDown
	case !down && s.down:
		ev.Type = desktop.ButtonUp
	case down && moved:
		ev.Type = desktop.Dragged
	default:
		return ev, false
	}
	s.down = down
	return ev, true
}

// pointerTap polls the pointer. The core protocol has no listen-only grab, so
// polling is the only way to observe a button without taking it from clients.
type pointerTap struct {
	client *Client
	s      sampler

	events chan desktop.PointerEvent
	stop   chan struct{}
	once   sync.Once

	paused atomic.Bool // events were dropped and Enable was not called yet
	notice bool        // TapDisabledByTimeout still to be delivered, poll goroutine only
}

// InstallPointerTap implements desktop.PointerTapper.
func (c *Client) InstallPointerTap(button desktop.Button) (desktop.PointerTap, error) {
	mask, ok := buttonMask(button)
	if !ok {
		return nil, errors.Wrapf(desktop.ErrUnsupported, "button %s cannot be observed on X11", button)
	}

	reply, err := xproto.QueryPointer(c.conn, c.root).Reply()
	if err != nil {
		return nil, errors.Wrap(desktop.ErrPermissionDenied, err.Error())
	}

	t := &pointerTap{
		client: c,
		s:      sampler{button: button, mask: mask, x: reply.RootX, y: reply.RootY},
		events: make(chan desktop.PointerEvent, tapBuffer),
		stop:   make(chan struct{}),
	}
	// a press in progress is not ours
	t.s.down = reply.Mask&mask != 0

	go t.poll()
	return t, nil
}

func (t *pointerTap) Events() <-chan desktop.PointerEvent { return t.events }

func (t *pointerTap) Enable() error {
	t.paused.Store(false)
	return nil
}

func (t *pointerTap) Close() error {
	t.once.Do(func() { close(t.stop) })
	return nil
}

func (t *pointerTap) poll() {
	defer close(t.events)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		reply, err := xproto.QueryPointer(t.client.conn, t.client.root).Reply()
		if err != nil {
			log.Errorf("Pointer query failed, closing tap: %v", err)
			return
		}
		ev, ok := t.s.step(reply.Mask, reply.RootX, reply.RootY)
		t.deliver(ev, ok)
	}
}

// deliver sends ev when ok. A full queue pauses the tap until Enable, the same
// way a slow consumer gets a tap disabled on other backends.
func (t *pointerTap) deliver(ev desktop.PointerEvent, ok bool) {
	if t.notice {
		select {
		case t.events <- desktop.PointerEvent{Type: desktop.TapDisabledByTimeout}:
			t.notice = false
		default:
		}
		return
	}
	if !ok || t.paused.Load() {
		return
	}
	select {
	case t.events <- ev:
	default:
		t.paused.Store(true)
		t.notice = true
	}
}
