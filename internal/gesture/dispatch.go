package gesture

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/pkg/desktop"
)

// Navigator walks the app history.
type Navigator interface {
	SwitchToPrevious() bool
	SwitchToNext() bool
	WillFireSystemGesture()
}

// Feedback shows the result of a history step. Implementations must not block.
type Feedback interface {
	Show(dir Direction, boundary bool)
}

// Recorder stores dispatches in the usage log.
type Recorder interface {
	Record(d Dispatch)
}

// ConfigSource supplies the live configuration.
type ConfigSource interface {
	Config() *config.Config
}

// Outcome is what became of a dispatch.
type Outcome int

const (
	OutcomeNone     Outcome = iota // mapped to nothing
	OutcomeSwitched                // history step taken
	OutcomeBoundary                // no entry in that direction
	OutcomeFired                   // system action started
	OutcomeFailed                  // system action failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSwitched:
		return "switched"
	case OutcomeBoundary:
		return "boundary"
	case OutcomeFired:
		return "fired"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Dispatch describes one executed gesture.
type Dispatch struct {
	Direction Direction
	Action    config.Action
	Outcome   Outcome
	Err       error
	At        time.Time
}

// ActionFor returns the action mapped to dir.
func ActionFor(g config.GestureConfig, dir Direction) config.Action {
	switch dir {
	case Left:
		return g.DragLeft
	case Right:
		return g.DragRight
	case Up:
		return g.DragUp
	case Down:
		return g.DragDown
	}
	return config.ActionNone
}

// Dispatcher runs the action configured for a direction.
type Dispatcher struct {
	cfg      ConfigSource
	nav      Navigator
	actions  desktop.SystemActions
	feedback Feedback
	recorder Recorder
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. feedback and recorder may be nil.
func NewDispatcher(cfg ConfigSource, nav Navigator, actions desktop.SystemActions, feedback Feedback, recorder Recorder) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		nav:      nav,
		actions:  actions,
		feedback: feedback,
		recorder: recorder,
		now:      time.Now,
	}
}

// Handle executes the action for dir. Errors are logged, never returned.
func (d *Dispatcher) Handle(dir Direction) {
	d.Dispatch(dir)
}

// Dispatch executes the action for dir and reports what happened.
func (d *Dispatcher) Dispatch(dir Direction) Dispatch {
	cfg := d.cfg.Config()
	action := ActionFor(cfg.Gesture, dir)
	res := Dispatch{Direction: dir, Action: action, At: d.now()}

	entry := log.WithFields(log.Fields{
		"direction": dir.String(),
		"action":    action.String(),
	})
	entry.Infof("%s %s", dir.Arrow(), action)

	switch action {
	case config.ActionNone:
		res.Outcome = OutcomeNone

	case config.ActionSwitchPrevApp:
		ok := d.nav.SwitchToPrevious()
		res.Outcome = navOutcome(ok)
		shown := Left
		if dir == Right {
			shown = Right
		}
		d.show(shown, !ok)

	case config.ActionSwitchNextApp:
		ok := d.nav.SwitchToNext()
		res.Outcome = navOutcome(ok)
		shown := Right
		if dir == Left {
			shown = Left
		}
		d.show(shown, !ok)

	default:
		d.nav.WillFireSystemGesture()
		if err := d.fire(cfg, action); err != nil {
			res.Outcome = OutcomeFailed
			res.Err = err
			entry.Errorf("Action failed: %v", err)
		} else {
			res.Outcome = OutcomeFired
		}
	}

	if d.recorder != nil {
		d.recorder.Record(res)
	}
	return res
}

func (d *Dispatcher) fire(cfg *config.Config, action config.Action) error {
	switch action {
	case config.ActionMissionControl:
		return d.actions.OpenSurface(desktop.SurfaceMissionControl)
	case config.ActionLaunchpad:
		return d.actions.OpenSurface(desktop.SurfaceLaunchpad)
	case config.ActionAppExpose:
		return d.actions.PostShortcut(cfg.Actions.AppExposeShortcut)
	case config.ActionSwitchSpaceLeft:
		return d.actions.PostShortcut(cfg.Actions.SpaceLeftShortcut)
	case config.ActionSwitchSpaceRight:
		return d.actions.PostShortcut(cfg.Actions.SpaceRightShortcut)
	case config.ActionShowDesktop:
		return d.actions.ShowDesktop()
	}
	return fmt.Errorf("unhandled action %s", action)
}

func (d *Dispatcher) show(dir Direction, boundary bool) {
	if d.feedback != nil {
		d.feedback.Show(dir, boundary)
	}
}

func navOutcome(ok bool) Outcome {
	if ok {
		return OutcomeSwitched
	}
	return OutcomeBoundary
}
