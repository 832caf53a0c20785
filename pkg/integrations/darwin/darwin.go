// Package darwin drives macOS through osascript and open. It needs no cgo, at
// the price of a pointer tap: InstallPointerTap reports desktop.ErrUnsupported.
package darwin

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/pkg/desktop"
)

const (
	selfBundleID = "io.github.middrag"
	frontPoll    = 250 * time.Millisecond
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(ee.Stderr)))
	}
	return out, err
}

const processesScript = `var ps = Application("System Events").processes.whose({backgroundOnly: false});
var ids = ps.bundleIdentifier(), names = ps.name(), pids = ps.unixId(), front = ps.frontmost();
JSON.stringify(ids.map(function (id, i) {
	return {id: id || "", name: names[i], pid: pids[i], frontmost: front[i]};
}));`

type process struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PID       int    `json:"pid"`
	Frontmost bool   `json:"frontmost"`
}

func (p process) app() desktop.App {
	return desktop.App{ID: p.ID, Name: p.Name, PID: p.PID, Regular: true}
}

// Workspace implements desktop.Workspace.
type Workspace struct {
	run Runner
}

// NewWorkspace returns a workspace; a nil run uses os/exec.
func NewWorkspace(run Runner) *Workspace {
	if run == nil {
		run = execRunner
	}
	return &Workspace{run: run}
}

func (w *Workspace) processes(ctx context.Context) ([]process, error) {
	out, err := w.run(ctx, "osascript", "-l", "JavaScript", "-e", processesScript)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list processes")
	}
	var ps []process
	if err := json.Unmarshal(out, &ps); err != nil {
		return nil, errors.Wrap(err, "failed to parse process list")
	}
	return ps, nil
}

func (w *Workspace) RunningApps() ([]desktop.App, error) {
	ps, err := w.processes(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]desktop.App, 0, len(ps))
	for _, p := range ps {
		if p.ID != "" {
			out = append(out, p.app())
		}
	}
	return out, nil
}

func (w *Workspace) FrontmostApp() (desktop.App, error) {
	return w.frontmost(context.Background())
}

func (w *Workspace) frontmost(ctx context.Context) (desktop.App, error) {
	ps, err := w.processes(ctx)
	if err != nil {
		return desktop.App{}, err
	}
	for _, p := range ps {
		if p.Frontmost {
			return p.app(), nil
		}
	}
	return desktop.App{}, fmt.Errorf("no frontmost application")
}

func (w *Workspace) IsTerminated(app desktop.App) bool {
	ps, err := w.processes(context.Background())
	if err != nil {
		return false
	}
	for _, p := range ps {
		if p.ID == app.ID {
			return false
		}
	}
	return true
}

// Activate brings the running process to the front without launching it, then
// waits until it is frontmost.
func (w *Workspace) Activate(ctx context.Context, app desktop.App) error {
	script := fmt.Sprintf(`tell application "System Events" to set frontmost of (first process whose bundle identifier is %s) to true`,
		appleScriptString(app.ID))
	if _, err := w.run(ctx, "osascript", "-e", script); err != nil {
		return errors.Wrapf(err, "failed to activate %s", app)
	}

	ticker := time.NewTicker(frontPoll / 5)
	defer ticker.Stop()
	for {
		if front, err := w.frontmost(ctx); err == nil && front.Same(app) {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "%s did not become frontmost", app)
		case <-ticker.C:
		}
	}
}

// ActivateDirect opens the bundle through LaunchServices.
func (w *Workspace) ActivateDirect(app desktop.App) error {
	if _, err := w.run(context.Background(), "open", "-b", app.ID); err != nil {
		return errors.Wrapf(err, "failed to open %s", app.ID)
	}
	return nil
}

// Notifications polls the frontmost application and reports changes.
func (w *Workspace) Notifications(ctx context.Context) (<-chan desktop.App, error) {
	out := make(chan desktop.App)
	go func() {
		defer close(out)
		ticker := time.NewTicker(frontPoll)
		defer ticker.Stop()

		var last string
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			app, err := w.frontmost(ctx)
			if err != nil {
				log.Debugf("Frontmost app unavailable: %v", err)
				continue
			}
			if app.ID == last {
				continue
			}
			last = app.ID
			select {
			case out <- app:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (w *Workspace) SelfID() string { return selfBundleID }

// Tapper reports that global pointer taps need the native event tap API.
type Tapper struct{}

func (Tapper) InstallPointerTap(desktop.Button) (desktop.PointerTap, error) {
	return nil, errors.Wrap(desktop.ErrUnsupported, "pointer taps need a native build on macOS")
}

func appleScriptString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
