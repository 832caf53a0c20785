// Package service wires the gesture engine, the app history and the usage log
// into one running instance.
package service

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/autostart"
	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/internal/database"
	"github.com/middrag/middrag/internal/gesture"
	"github.com/middrag/middrag/internal/history"
	"github.com/middrag/middrag/internal/mainloop"
	"github.com/middrag/middrag/internal/models"
	"github.com/middrag/middrag/pkg/desktop"
)

// DefaultPermissionRetry is how often a stopped engine is started again.
const DefaultPermissionRetry = 2 * time.Second

// Options are the collaborators of a Service.
type Options struct {
	Store         *config.Store
	Tapper        desktop.PointerTapper
	Workspace     desktop.Workspace
	Actions       desktop.SystemActions
	DisplayServer string

	Repo      *database.Repository // nil disables the usage log
	Feedback  gesture.Feedback     // may be nil
	Autostart autostart.Manager    // nil leaves the login entry alone

	PermissionRetry time.Duration
}

type Service struct {
	opts  Options
	runID string

	loop       *mainloop.Loop
	tracker    *history.Tracker
	engine     *gesture.Engine
	dispatcher *gesture.Dispatcher

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
}

func New(opts Options) *Service {
	if opts.PermissionRetry <= 0 {
		opts.PermissionRetry = DefaultPermissionRetry
	}

	s := &Service{
		opts:     opts,
		runID:    uuid.NewString(),
		loop:     mainloop.New(mainloop.DefaultBuffer),
		stopChan: make(chan struct{}),
	}

	cfg := opts.Store.Config()
	s.tracker = history.New(opts.Workspace, trackerOptions(cfg.Tracker, opts.Workspace.SelfID()))
	s.dispatcher = gesture.NewDispatcher(opts.Store, s.tracker, opts.Actions, opts.Feedback, s)
	s.engine = gesture.NewEngine(opts.Tapper, opts.Store, s.loop, s.dispatcher.Handle)

	opts.Store.OnChange(s.onConfigChange)
	return s
}

// Start runs the service until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.WithField("run_id", s.runID).Infof("Starting middrag on %s", s.opts.DisplayServer)

	s.seed()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.loop.Run(runCtx)
	}()

	if ch, err := s.opts.Workspace.Notifications(runCtx); err != nil {
		s.storeError("notifications", fmt.Errorf("failed to observe app activations: %w", err))
	} else {
		go s.tracker.Run(runCtx, ch)
	}

	if s.opts.Store.Path() != "" {
		if err := s.opts.Store.Watch(runCtx); err != nil {
			log.Warnf("Config hot reload disabled: %v", err)
		}
	}

	s.applyAutostart(s.opts.Store.Config().Gesture.LaunchAtLogin)

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		s.keepEngine(runCtx)
	}()

	var err error
	select {
	case <-ctx.Done():
		log.Info("Service stopped by context")
		err = ctx.Err()
	case <-s.stopChan:
		log.Info("Service stopped")
	}

	cancel()
	<-engineDone
	s.engine.Stop()
	<-loopDone
	s.tracker.Wait()
	return err
}

// Stop ends Start. It is safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// EngineRunning reports whether the pointer tap is live.
func (s *Service) EngineRunning() bool { return s.engine.IsRunning() }

// History returns a snapshot of the app history.
func (s *Service) History() history.State { return s.tracker.Snapshot() }

func (s *Service) DisplayServer() string { return s.opts.DisplayServer }

func (s *Service) RunID() string { return s.runID }

func (s *Service) seed() {
	ws := s.opts.Workspace
	running, err := ws.RunningApps()
	if err != nil {
		s.storeError("seed", fmt.Errorf("failed to list running apps: %w", err))
	}
	front, err := ws.FrontmostApp()
	if err != nil {
		log.Debugf("No frontmost app: %v", err)
	}
	s.tracker.Seed(running, front)

	state := s.tracker.Snapshot()
	log.Infof("History seeded with %d apps", len(state.History))
}

// keepEngine starts the engine and retries while it is stopped, which covers
// missing permissions at launch and taps the backend tore down.
func (s *Service) keepEngine(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PermissionRetry)
	defer ticker.Stop()

	for {
		if !s.engine.IsRunning() {
			_ = s.engine.Start()
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) onConfigChange(old, cur *config.Config) {
	if old.Gesture.TriggerButton != cur.Gesture.TriggerButton && s.engine.IsRunning() {
		log.Infof("Trigger button changed to %s", cur.Gesture.TriggerButton)
		if err := s.engine.Restart(); err != nil {
			s.storeError("tap", err)
		}
	}
	if !reflect.DeepEqual(old.Tracker, cur.Tracker) {
		s.tracker.SetOptions(trackerOptions(cur.Tracker, s.opts.Workspace.SelfID()))
	}
	if old.Gesture.LaunchAtLogin != cur.Gesture.LaunchAtLogin && s.IsRunning() {
		s.applyAutostart(cur.Gesture.LaunchAtLogin)
	}
	if old.Log.Level != cur.Log.Level {
		if level, err := log.ParseLevel(cur.Log.Level); err == nil {
			log.SetLevel(level)
		}
	}
}

func (s *Service) applyAutostart(enabled bool) {
	if s.opts.Autostart == nil {
		return
	}
	if err := autostart.Apply(s.opts.Autostart, enabled); err != nil {
		s.storeError("autostart", err)
	}
}

// Record implements gesture.Recorder. The event is stored before its error.
func (s *Service) Record(d gesture.Dispatch) {
	if s.opts.Repo != nil {
		event := &models.GestureEvent{
			Timestamp:     d.At,
			RunID:         s.runID,
			Direction:     d.Direction.String(),
			Action:        d.Action.String(),
			Outcome:       d.Outcome.String(),
			DisplayServer: s.opts.DisplayServer,
		}
		if err := s.opts.Repo.Create(event); err != nil {
			log.Errorf("Failed to save gesture event: %v", err)
		}
	}

	if d.Err != nil {
		s.storeError("dispatch", fmt.Errorf("%s: %w", d.Action, d.Err))
	}
}

func (s *Service) storeError(source string, err error) {
	log.WithField("source", source).Error(err)
	if s.opts.Repo == nil {
		return
	}

	errorLog := &models.ErrorLog{
		Timestamp: time.Now(),
		RunID:     s.runID,
		Source:    source,
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.opts.Repo.CreateErrorLog(errorLog); dbErr != nil {
		log.Errorf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	}
}

func trackerOptions(cfg config.TrackerConfig, self string) history.Options {
	return history.Options{
		MaxEntries:      cfg.MaxEntries,
		SuppressWindow:  cfg.SuppressWindow.D(),
		PendingTTL:      cfg.PendingTTL.D(),
		ActivateTimeout: cfg.ActivateTimeout.D(),
		Blocklist:       cfg.Blocklist,
		SelfID:          self,
	}
}
