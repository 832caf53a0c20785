package gesture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/pkg/desktop"
	"github.com/middrag/middrag/pkg/desktop/desktoptest"
)

type fakeNav struct {
	prevOK, nextOK bool
	prev, next     int
	system         int
}

func (n *fakeNav) SwitchToPrevious() bool { n.prev++; return n.prevOK }
func (n *fakeNav) SwitchToNext() bool     { n.next++; return n.nextOK }
func (n *fakeNav) WillFireSystemGesture() { n.system++ }

type shown struct {
	dir      Direction
	boundary bool
}

type fakeFeedback struct{ shown []shown }

func (f *fakeFeedback) Show(dir Direction, boundary bool) {
	f.shown = append(f.shown, shown{dir, boundary})
}

type fakeRecorder struct{ got []Dispatch }

func (r *fakeRecorder) Record(d Dispatch) { r.got = append(r.got, d) }

func newDispatcher(t *testing.T, mutate func(*config.Config)) (*Dispatcher, *fakeNav, *desktoptest.Actions, *fakeFeedback, *fakeRecorder) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	nav := &fakeNav{prevOK: true, nextOK: true}
	actions := &desktoptest.Actions{}
	fb := &fakeFeedback{}
	rec := &fakeRecorder{}
	return NewDispatcher(config.NewStore(cfg, ""), nav, actions, fb, rec), nav, actions, fb, rec
}

func TestDispatchDefaults(t *testing.T) {
	d, nav, actions, fb, rec := newDispatcher(t, nil)

	assert.Equal(t, OutcomeSwitched, d.Dispatch(Left).Outcome)
	assert.Equal(t, OutcomeSwitched, d.Dispatch(Right).Outcome)
	assert.Equal(t, OutcomeFired, d.Dispatch(Up).Outcome)
	assert.Equal(t, OutcomeFired, d.Dispatch(Down).Outcome)

	assert.Equal(t, 1, nav.prev)
	assert.Equal(t, 1, nav.next)
	assert.Equal(t, 2, nav.system)
	assert.Equal(t, []desktop.Surface{desktop.SurfaceMissionControl}, actions.Surfaces())
	assert.Equal(t, 1, actions.DesktopCount())
	assert.Equal(t, []shown{{Left, false}, {Right, false}}, fb.shown)
	assert.Len(t, rec.got, 4)
	assert.Equal(t, config.ActionShowDesktop, rec.got[3].Action)
}

func TestDispatchBoundary(t *testing.T) {
	d, nav, _, fb, _ := newDispatcher(t, nil)
	nav.prevOK = false
	nav.nextOK = false

	assert.Equal(t, OutcomeBoundary, d.Dispatch(Left).Outcome)
	assert.Equal(t, OutcomeBoundary, d.Dispatch(Right).Outcome)
	assert.Equal(t, []shown{{Left, true}, {Right, true}}, fb.shown)
}

func TestDispatchFeedbackFollowsDrag(t *testing.T) {
	d, _, _, fb, _ := newDispatcher(t, func(c *config.Config) {
		c.Gesture.DragRight = config.ActionSwitchPrevApp
		c.Gesture.DragLeft = config.ActionSwitchNextApp
		c.Gesture.DragUp = config.ActionSwitchPrevApp
		c.Gesture.DragDown = config.ActionSwitchNextApp
	})

	d.Dispatch(Right)
	d.Dispatch(Left)
	d.Dispatch(Up)
	d.Dispatch(Down)
	assert.Equal(t, []shown{{Right, false}, {Left, false}, {Left, false}, {Right, false}}, fb.shown)
}

func TestDispatchShortcuts(t *testing.T) {
	d, nav, actions, _, _ := newDispatcher(t, func(c *config.Config) {
		c.Gesture.DragLeft = config.ActionSwitchSpaceLeft
		c.Gesture.DragRight = config.ActionSwitchSpaceRight
		c.Gesture.DragUp = config.ActionAppExpose
		c.Gesture.DragDown = config.ActionLaunchpad
	})

	for _, dir := range []Direction{Left, Right, Up, Down} {
		assert.Equal(t, OutcomeFired, d.Dispatch(dir).Outcome)
	}
	assert.Equal(t, 4, nav.system)
	assert.Equal(t, []string{"ctrl+Left", "ctrl+Right", "ctrl+Down"}, shortcutNames(actions.Shortcuts()))
	assert.Equal(t, []desktop.Surface{desktop.SurfaceLaunchpad}, actions.Surfaces())
}

func TestDispatchNone(t *testing.T) {
	d, nav, actions, fb, rec := newDispatcher(t, func(c *config.Config) {
		c.Gesture.DragUp = config.ActionNone
	})

	assert.Equal(t, OutcomeNone, d.Dispatch(Up).Outcome)
	assert.Zero(t, nav.system)
	assert.Empty(t, actions.Surfaces())
	assert.Empty(t, fb.shown)
	assert.Len(t, rec.got, 1)
}

func TestDispatchFailureIsContained(t *testing.T) {
	d, _, actions, _, rec := newDispatcher(t, nil)
	actions.Err = errors.New("helper missing")

	res := d.Dispatch(Down)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.EqualError(t, res.Err, "helper missing")
	assert.Equal(t, OutcomeFailed, rec.got[0].Outcome)
}

func TestDispatchWithoutCollaborators(t *testing.T) {
	nav := &fakeNav{prevOK: true}
	d := NewDispatcher(config.NewStore(config.Default(), ""), nav, &desktoptest.Actions{}, nil, nil)
	assert.NotPanics(t, func() { d.Handle(Left) })
	assert.Equal(t, 1, nav.prev)
}

func shortcutNames(scs []desktop.Shortcut) []string {
	var out []string
	for _, sc := range scs {
		out = append(out, sc.String())
	}
	return out
}
