// Package detector picks the desktop backend for the current session.
package detector

import (
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/pkg/desktop"
	"github.com/middrag/middrag/pkg/integrations/darwin"
	"github.com/middrag/middrag/pkg/integrations/x11"
)

// Backend bundles the desktop capabilities of one session.
type Backend struct {
	Tapper        desktop.PointerTapper
	Workspace     desktop.Workspace
	Actions       desktop.SystemActions
	DisplayServer string

	closer func()
}

// Close releases the backend's connections.
func (b *Backend) Close() error {
	if b.closer != nil {
		b.closer()
	}
	return nil
}

// New opens the backend for the running session. commands is consulted on
// every system action.
func New(commands func() desktop.Commands) (*Backend, error) {
	if runtime.GOOS == "darwin" {
		return &Backend{
			Tapper:        darwin.Tapper{},
			Workspace:     darwin.NewWorkspace(nil),
			Actions:       darwin.NewActions(nil, commands),
			DisplayServer: "darwin",
		}, nil
	}

	switch ds := DetectDisplayServer(); ds {
	case "x11":
		return newX11(os.Getenv("DISPLAY"), commands, "x11")
	case "wayland":
		// XWayland exposes X11 clients only; native Wayland windows stay invisible.
		if display := os.Getenv("DISPLAY"); display != "" {
			log.Warn("Wayland session: using XWayland, native Wayland windows are not tracked")
			return newX11(display, commands, "xwayland")
		}
		return nil, fmt.Errorf("wayland without XWayland: %w", desktop.ErrUnsupported)
	default:
		return nil, fmt.Errorf("no display server detected (DISPLAY unset): %w", desktop.ErrPermissionDenied)
	}
}

func newX11(display string, commands func() desktop.Commands, name string) (*Backend, error) {
	client, err := x11.Connect(display)
	if err != nil {
		return nil, err
	}
	ws, err := x11.NewWorkspace(client, display)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &Backend{
		Tapper:        client,
		Workspace:     ws,
		Actions:       x11.NewActions(client, commands),
		DisplayServer: name,
		closer:        client.Close,
	}, nil
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
