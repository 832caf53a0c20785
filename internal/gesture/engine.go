// Package gesture turns trigger-button drags into directions and runs the action
// configured for each.
package gesture

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/pkg/desktop"
)

// Settings supplies the live gesture configuration.
type Settings interface {
	Gesture() config.GestureConfig
}

// Poster hands work to the main loop.
type Poster interface {
	Post(fn func()) bool
}

// Engine owns the pointer tap. Classification runs on the tap goroutine; the
// resulting direction is posted to the main loop.
type Engine struct {
	tapper   desktop.PointerTapper
	settings Settings
	poster   Poster
	handle   func(Direction)

	mu      sync.Mutex
	tap     desktop.PointerTap
	button  desktop.Button
	done    chan struct{}
	lastErr string // repeated failures are logged once
}

// NewEngine creates a stopped engine. handle runs on the main loop once per
// classified press.
func NewEngine(tapper desktop.PointerTapper, settings Settings, poster Poster, handle func(Direction)) *Engine {
	return &Engine{
		tapper:   tapper,
		settings: settings,
		poster:   poster,
		handle:   handle,
	}
}

// Start installs the pointer tap for the configured trigger button. It is a no-op
// while running. On failure the error is logged and returned and the engine stays
// stopped.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tap != nil {
		return nil
	}

	button := e.settings.Gesture().TriggerButton
	tap, err := e.tapper.InstallPointerTap(button)
	if err != nil {
		err = fmt.Errorf("failed to install pointer tap for %s button: %w", button, err)
		if msg := err.Error(); msg != e.lastErr {
			log.Errorf("Gesture engine not started: %v", err)
			e.lastErr = msg
		} else {
			log.Debugf("Gesture engine still not started: %v", err)
		}
		return err
	}
	e.lastErr = ""

	e.tap = tap
	e.button = button
	e.done = make(chan struct{})
	go e.run(tap, button, e.done)

	log.Infof("Gesture engine running (trigger: %s button)", button)
	return nil
}

// Stop removes the pointer tap. It is a no-op when not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	tap, done := e.tap, e.done
	e.tap = nil
	e.done = nil
	e.mu.Unlock()

	if tap == nil {
		return
	}
	if err := tap.Close(); err != nil {
		log.Warnf("Failed to close pointer tap: %v", err)
	}
	<-done
	log.Info("Gesture engine stopped")
}

// Restart reinstalls the tap, picking up a new trigger button.
func (e *Engine) Restart() error {
	e.Stop()
	return e.Start()
}

// IsRunning reports whether the pointer tap is live.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tap != nil
}

// Button returns the button the running tap observes.
func (e *Engine) Button() desktop.Button {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.button
}

func (e *Engine) run(tap desktop.PointerTap, button desktop.Button, done chan struct{}) {
	defer close(done)
	defer func() {
		e.mu.Lock()
		if e.tap == tap {
			// the backend closed the stream on its own
			e.tap = nil
			e.done = nil
			log.Warn("Pointer tap closed by backend")
		}
		e.mu.Unlock()
	}()

	var press PressState
	for ev := range tap.Events() {
		switch ev.Type {
		case desktop.ButtonDown:
			if ev.Button == button {
				press.Press(ev.X, ev.Y)
			}
		case desktop.ButtonUp:
			if ev.Button == button {
				press.Release()
			}
		case desktop.Dragged:
			dir, ok := press.Drag(ev.X, ev.Y, e.settings.Gesture().Threshold)
			if !ok {
				continue
			}
			if !e.poster.Post(func() { e.handle(dir) }) {
				log.Warnf("Dropped %s gesture, main loop busy", dir)
			}
		case desktop.TapDisabledByTimeout, desktop.TapDisabledByUserInput:
			log.Debugf("Pointer tap %s, re-enabling", ev.Type)
			if err := tap.Enable(); err != nil {
				log.Errorf("Failed to re-enable pointer tap: %v", err)
			}
		}
	}
}
