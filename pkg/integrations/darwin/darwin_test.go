package darwin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middrag/middrag/pkg/desktop"
)

// fakeRunner answers the process script from procs and records every call.
type fakeRunner struct {
	mu    sync.Mutex
	procs string
	err   error
	calls [][]string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, f.err
	}
	if name == "osascript" && len(args) > 0 && args[0] == "-l" {
		return []byte(f.procs), nil
	}
	return nil, nil
}

func (f *fakeRunner) setProcs(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs = s
}

func (f *fakeRunner) last() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

const procs = `[
	{"id":"com.apple.finder","name":"Finder","pid":301,"frontmost":false},
	{"id":"com.apple.Safari","name":"Safari","pid":512,"frontmost":true},
	{"id":"","name":"helper","pid":9,"frontmost":false}
]`

func TestRunningApps(t *testing.T) {
	f := &fakeRunner{procs: procs}
	ws := NewWorkspace(f.run)

	apps, err := ws.RunningApps()
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "com.apple.finder", apps[0].ID)
	assert.True(t, apps[0].Regular)

	front, err := ws.FrontmostApp()
	require.NoError(t, err)
	assert.Equal(t, "Safari", front.Name)
	assert.Equal(t, 512, front.PID)

	assert.False(t, ws.IsTerminated(desktop.App{ID: "com.apple.Safari"}))
	assert.True(t, ws.IsTerminated(desktop.App{ID: "com.apple.Mail"}))
}

func TestRunningAppsErrors(t *testing.T) {
	f := &fakeRunner{err: errors.New("not authorized")}
	ws := NewWorkspace(f.run)
	_, err := ws.RunningApps()
	assert.ErrorContains(t, err, "not authorized")
	assert.False(t, ws.IsTerminated(desktop.App{ID: "x"}), "unknown state keeps the entry")

	f = &fakeRunner{procs: "garbage"}
	_, err = NewWorkspace(f.run).FrontmostApp()
	assert.Error(t, err)
}

func TestActivate(t *testing.T) {
	f := &fakeRunner{procs: procs}
	ws := NewWorkspace(f.run)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := ws.Activate(ctx, desktop.App{ID: "com.apple.finder"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, f.calls[0][2], `bundle identifier is "com.apple.finder"`)

	f.setProcs(strings.Replace(strings.Replace(procs, `"frontmost":true`, `"frontmost":false`, 1),
		`301,"frontmost":false`, `301,"frontmost":true`, 1))
	require.NoError(t, ws.Activate(context.Background(), desktop.App{ID: "com.apple.finder"}))
}

func TestActivateDirect(t *testing.T) {
	f := &fakeRunner{}
	require.NoError(t, NewWorkspace(f.run).ActivateDirect(desktop.App{ID: "com.apple.Safari"}))
	assert.Equal(t, []string{"open", "-b", "com.apple.Safari"}, f.last())
}

func TestNotifications(t *testing.T) {
	f := &fakeRunner{procs: procs}
	ws := NewWorkspace(f.run)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := ws.Notifications(ctx)
	require.NoError(t, err)

	select {
	case app := <-ch:
		assert.Equal(t, "com.apple.Safari", app.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}

	select {
	case app := <-ch:
		t.Fatalf("repeated notification for %s", app.ID)
	case <-time.After(3 * frontPoll):
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTapper(t *testing.T) {
	_, err := Tapper{}.InstallPointerTap(desktop.ButtonMiddle)
	assert.ErrorIs(t, err, desktop.ErrUnsupported)
}

func TestShortcutScript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ctrl+Down", `tell application "System Events" to key code 125 using {control down}`},
		{"ctrl+Left", `tell application "System Events" to key code 123 using {control down}`},
		{"F11", `tell application "System Events" to key code 103`},
		{"cmd+shift+a", `tell application "System Events" to keystroke "a" using {shift down, command down}`},
	}
	for _, tt := range tests {
		sc, err := desktop.ParseShortcut(tt.in)
		require.NoError(t, err)
		got, err := shortcutScript(sc)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := shortcutScript(desktop.Shortcut{Key: "Hyper"})
	assert.Error(t, err)
}

func TestActions(t *testing.T) {
	f := &fakeRunner{}
	cmds := desktop.Commands{
		MissionControl: []string{"open", "-a", "Mission Control"},
		Launchpad:      []string{"open", "-a", "Launchpad"},
	}
	a := NewActions(f.run, func() desktop.Commands { return cmds })

	require.NoError(t, a.OpenSurface(desktop.SurfaceLaunchpad))
	assert.Equal(t, []string{"open", "-a", "Launchpad"}, f.last())

	require.NoError(t, a.OpenSurface(desktop.SurfaceMissionControl))
	assert.Equal(t, []string{"open", "-a", "Mission Control"}, f.last())

	assert.ErrorIs(t, a.ShowDesktop(), desktop.ErrUnsupported)

	require.NoError(t, a.PostShortcut(desktop.Shortcut{Key: "Right", Modifiers: desktop.ModControl}))
	assert.Equal(t, "osascript", f.last()[0])
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"a\"b\\c"`, appleScriptString(`a"b\c`))
}
