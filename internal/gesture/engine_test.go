package gesture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/pkg/desktop"
	"github.com/middrag/middrag/pkg/desktop/desktoptest"
)

// inline runs posted work immediately.
type inline struct{}

func (inline) Post(fn func()) bool {
	fn()
	return true
}

type refusing struct{}

func (refusing) Post(func()) bool { return false }

func newEngine(t *testing.T, poster Poster) (*Engine, *desktoptest.Tapper, *config.Store, chan Direction) {
	t.Helper()
	tapper := &desktoptest.Tapper{}
	store := config.NewStore(config.Default(), "")
	dirs := make(chan Direction, 16)
	e := NewEngine(tapper, store, poster, func(d Direction) { dirs <- d })
	t.Cleanup(e.Stop)
	return e, tapper, store, dirs
}

func ev(typ desktop.EventType, x, y float64) desktop.PointerEvent {
	return desktop.PointerEvent{Type: typ, Button: desktop.ButtonMiddle, X: x, Y: y}
}

func expectDir(t *testing.T, dirs <-chan Direction, want Direction) {
	t.Helper()
	select {
	case got := <-dirs:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("no %s gesture dispatched", want)
	}
}

func expectNone(t *testing.T, dirs <-chan Direction) {
	t.Helper()
	select {
	case got := <-dirs:
		t.Fatalf("unexpected %s gesture", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngineStartStop(t *testing.T) {
	e, tapper, _, _ := newEngine(t, inline{})
	assert.False(t, e.IsRunning())

	require.NoError(t, e.Start())
	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())
	assert.Len(t, tapper.Installs(), 1)
	assert.Equal(t, desktop.ButtonMiddle, e.Button())

	e.Stop()
	e.Stop()
	assert.False(t, e.IsRunning())
	assert.True(t, tapper.Last().Closed())
}

func TestEngineStartFailure(t *testing.T) {
	e, tapper, _, _ := newEngine(t, inline{})
	tapper.Err = desktop.ErrPermissionDenied

	err := e.Start()
	assert.ErrorIs(t, err, desktop.ErrPermissionDenied)
	assert.False(t, e.IsRunning())

	tapper.Err = nil
	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())
}

func TestEngineSingleFirePerPress(t *testing.T) {
	e, tapper, _, dirs := newEngine(t, inline{})
	require.NoError(t, e.Start())
	tap := tapper.Last()

	tap.Send(ev(desktop.ButtonDown, 100, 100))
	tap.Send(ev(desktop.Dragged, 150, 100))
	tap.Send(ev(desktop.Dragged, 190, 100))
	tap.Send(ev(desktop.Dragged, 300, 100))
	tap.Send(ev(desktop.Dragged, 100, 400))
	tap.Send(ev(desktop.ButtonUp, 100, 400))

	expectDir(t, dirs, Right)
	expectNone(t, dirs)

	tap.Send(ev(desktop.ButtonDown, 100, 400))
	tap.Send(ev(desktop.Dragged, 100, 300))
	expectDir(t, dirs, Up)
}

func TestEngineIgnoresOtherButtons(t *testing.T) {
	e, tapper, _, dirs := newEngine(t, inline{})
	require.NoError(t, e.Start())
	tap := tapper.Last()

	tap.Send(desktop.PointerEvent{Type: desktop.ButtonDown, Button: desktop.ButtonRight})
	tap.Send(ev(desktop.Dragged, 300, 0))
	expectNone(t, dirs)
}

func TestEngineUsesLiveThreshold(t *testing.T) {
	e, tapper, store, dirs := newEngine(t, inline{})
	require.NoError(t, e.Start())
	tap := tapper.Last()

	require.NoError(t, store.Update(func(c *config.Config) error {
		return c.SetThreshold(200)
	}))

	tap.Send(ev(desktop.ButtonDown, 0, 0))
	tap.Send(ev(desktop.Dragged, -150, 0))
	expectNone(t, dirs)
	tap.Send(ev(desktop.Dragged, -200, 0))
	expectDir(t, dirs, Left)
}

func TestEngineReenablesTap(t *testing.T) {
	e, tapper, _, dirs := newEngine(t, inline{})
	require.NoError(t, e.Start())
	tap := tapper.Last()

	tap.Send(desktop.PointerEvent{Type: desktop.TapDisabledByTimeout})
	tap.Send(desktop.PointerEvent{Type: desktop.TapDisabledByUserInput})
	// an event after both makes sure they were processed
	tap.Send(ev(desktop.ButtonDown, 0, 0))
	tap.Send(ev(desktop.Dragged, 0, 100))
	expectDir(t, dirs, Down)

	assert.Equal(t, 2, tap.EnableCount())
}

func TestEngineBackendClose(t *testing.T) {
	e, tapper, _, _ := newEngine(t, inline{})
	require.NoError(t, e.Start())

	require.NoError(t, tapper.Last().Close())
	assert.Eventually(t, func() bool { return !e.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestEngineRestartPicksUpButton(t *testing.T) {
	e, tapper, store, _ := newEngine(t, inline{})
	require.NoError(t, e.Start())

	require.NoError(t, store.Update(func(c *config.Config) error {
		c.Gesture.TriggerButton = desktop.ButtonRight
		return nil
	}))
	require.NoError(t, e.Restart())

	assert.Equal(t, []desktop.Button{desktop.ButtonMiddle, desktop.ButtonRight}, tapper.Installs())
	assert.Equal(t, desktop.ButtonRight, e.Button())
}

func TestEngineDropsWhenLoopBusy(t *testing.T) {
	e, tapper, _, dirs := newEngine(t, refusing{})
	require.NoError(t, e.Start())
	tap := tapper.Last()

	tap.Send(ev(desktop.ButtonDown, 0, 0))
	tap.Send(ev(desktop.Dragged, 100, 0))
	expectNone(t, dirs)
	assert.True(t, e.IsRunning())
}

func TestStartErrorWraps(t *testing.T) {
	e, tapper, _, _ := newEngine(t, inline{})
	tapper.Err = errors.New("no display")
	err := e.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "middle")
}
