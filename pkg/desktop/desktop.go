package desktop

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied is returned when the desktop refuses access to global input
	// (missing accessibility trust, no display connection).
	ErrPermissionDenied = errors.New("desktop: permission denied")

	// ErrUnsupported is returned when the current backend cannot provide a capability.
	ErrUnsupported = errors.New("desktop: unsupported on this backend")
)

// App represents a running, user-activatable application.
// Two Apps are the same application when their IDs are equal.
type App struct {
	ID      string `json:"id"` // bundle identifier (macOS) or WM_CLASS class (X11)
	Name    string `json:"name"`
	PID     int    `json:"pid,omitempty"`
	Window  uint32 `json:"window,omitempty"` // most recent top-level window, 0 when unknown
	Path    string `json:"path,omitempty"`   // launchable location, empty when unknown
	Regular bool   `json:"regular"`          // ordinary foreground application
}

// Same reports whether a and b refer to the same application.
func (a App) Same(b App) bool {
	return a.ID != "" && a.ID == b.ID
}

// String returns the display name, falling back to the ID.
func (a App) String() string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return "?"
}

// EventType identifies a pointer tap event.
type EventType int

const (
	ButtonDown EventType = iota
	ButtonUp
	Dragged
	// TapDisabledByTimeout is delivered when the backend suspended the tap because
	// the consumer was too slow.
	TapDisabledByTimeout
	// TapDisabledByUserInput is delivered when the backend suspended the tap on a
	// user input policy.
	TapDisabledByUserInput
)

func (t EventType) String() string {
	switch t {
	case ButtonDown:
		return "down"
	case ButtonUp:
		return "up"
	case Dragged:
		return "dragged"
	case TapDisabledByTimeout:
		return "disabled-by-timeout"
	case TapDisabledByUserInput:
		return "disabled-by-user-input"
	}
	return "unknown"
}

// PointerEvent is one sample of the global pointer feed, in screen coordinates
// with y growing downwards.
type PointerEvent struct {
	Type   EventType
	Button Button
	X, Y   float64
}

// PointerTap is a live, listen-only interception of pointer events.
type PointerTap interface {
	// Events returns the event stream. It is closed after Close.
	Events() <-chan PointerEvent

	// Enable re-enables a tap that the backend suspended.
	Enable() error

	// Close removes the interception.
	Close() error
}

// PointerTapper installs pointer taps.
type PointerTapper interface {
	// InstallPointerTap starts observing down/up/drag events of button without
	// consuming them.
	InstallPointerTap(button Button) (PointerTap, error)
}

// Workspace is the view of running applications and the activation channel.
type Workspace interface {
	// RunningApps returns the running applications in no particular order.
	RunningApps() ([]App, error)

	// FrontmostApp returns the application that currently owns the foreground.
	FrontmostApp() (App, error)

	// IsTerminated reports whether no instance of app is running any more.
	IsTerminated(app App) bool

	// Activate asks the desktop to bring app to the foreground without starting
	// a new instance.
	Activate(ctx context.Context, app App) error

	// ActivateDirect is the fallback activation path.
	ActivateDirect(app App) error

	// Notifications streams applications as they become active. The channel is
	// closed when ctx is done.
	Notifications(ctx context.Context) (<-chan App, error)

	// SelfID returns the identifier this tool would have as an App.
	SelfID() string
}

// Surface is a system UI that can be opened by name.
type Surface int

const (
	SurfaceMissionControl Surface = iota
	SurfaceLaunchpad
)

func (s Surface) String() string {
	switch s {
	case SurfaceMissionControl:
		return "mission-control"
	case SurfaceLaunchpad:
		return "launchpad"
	}
	return "unknown"
}

// Commands are the external helper invocations used for system actions.
// An empty command disables the action.
type Commands struct {
	MissionControl []string
	Launchpad      []string
	ShowDesktop    []string
}

// SystemActions performs the one-shot system actions a gesture can trigger.
type SystemActions interface {
	// OpenSurface opens a named system surface.
	OpenSurface(s Surface) error

	// PostShortcut synthesizes a keyboard shortcut at the lowest level available.
	PostShortcut(sc Shortcut) error

	// ShowDesktop reveals the desktop through an external helper process.
	ShowDesktop() error
}
