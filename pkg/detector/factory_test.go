package detector

import (
	"errors"
	"runtime"
	"testing"

	"github.com/middrag/middrag/pkg/desktop"
)

func noCommands() desktop.Commands { return desktop.Commands{} }

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name             string
		sessionType      string
		waylandDisplay   string
		x11Display       string
		expectedContains string
	}{
		{
			name:             "Wayland session",
			sessionType:      "wayland",
			waylandDisplay:   "wayland-0",
			x11Display:       "",
			expectedContains: "wayland",
		},
		{
			name:             "X11 session",
			sessionType:      "x11",
			waylandDisplay:   "",
			x11Display:       ":0",
			expectedContains: "x11",
		},
		{
			name:             "Unknown session",
			sessionType:      "",
			waylandDisplay:   "",
			x11Display:       "",
			expectedContains: "unknown",
		},
		{
			name:             "Wayland display set",
			sessionType:      "",
			waylandDisplay:   "wayland-1",
			x11Display:       "",
			expectedContains: "wayland",
		},
		{
			name:             "X11 display set",
			sessionType:      "",
			waylandDisplay:   "",
			x11Display:       ":1",
			expectedContains: "x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			result := DetectDisplayServer()
			if result != tt.expectedContains {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expectedContains)
			}
		})
	}
}

func TestNewWithUnsupportedSystem(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("macOS needs no display variables")
	}
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	backend, err := New(noCommands)
	if err == nil {
		backend.Close()
		t.Fatal("New() succeeded without a display")
	}
	if !errors.Is(err, desktop.ErrPermissionDenied) {
		t.Errorf("New() error = %v, want ErrPermissionDenied", err)
	}
}

func TestNewWaylandWithoutXWayland(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("macOS needs no display variables")
	}
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	t.Setenv("DISPLAY", "")

	_, err := New(noCommands)
	if !errors.Is(err, desktop.ErrUnsupported) {
		t.Errorf("New() error = %v, want ErrUnsupported", err)
	}
}

func TestMultipleBackendInstances(t *testing.T) {
	backend1, err := New(noCommands)
	if err != nil {
		t.Skip("Display server not available")
	}
	defer backend1.Close()

	backend2, err := New(noCommands)
	if err != nil {
		t.Skip("Display server not available")
	}
	defer backend2.Close()

	if backend1.DisplayServer != backend2.DisplayServer {
		t.Errorf("Display servers don't match: %s vs %s", backend1.DisplayServer, backend2.DisplayServer)
	}
	if backend1.Workspace.SelfID() == "" {
		t.Error("SelfID() is empty")
	}
}
