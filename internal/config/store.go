package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Store owns the live configuration. Readers get whole immutable snapshots, so a
// concurrent Update never shows a half-written config.
type Store struct {
	path string
	cur  atomic.Pointer[Config]

	mu        sync.Mutex // serializes writers and guards listeners
	listeners []func(old, cur *Config)
}

// NewStore wraps cfg. An empty path keeps changes in memory only.
func NewStore(cfg *Config, path string) *Store {
	s := &Store{path: path}
	s.cur.Store(cfg.Clone())
	return s
}

// Open loads the config at path into a new Store.
func Open(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStore(cfg, path), nil
}

// Path returns the backing file, if any.
func (s *Store) Path() string { return s.path }

// Config returns the current snapshot. Callers must not modify it.
func (s *Store) Config() *Config { return s.cur.Load() }

// Gesture returns the current gesture settings.
func (s *Store) Gesture() GestureConfig { return s.cur.Load().Gesture }

// OnChange registers fn to run after every change, with the previous and new snapshots.
func (s *Store) OnChange(fn func(old, cur *Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update applies fn to a copy of the current config, validates it, persists it
// and publishes it.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	old := s.cur.Load()
	next := old.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.path != "" {
		if err := Save(s.path, next); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	listeners := s.publish(old, next)
	s.mu.Unlock()

	notify(listeners, old, next)
	return nil
}

// Reload re-reads the backing file.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	next, err := Load(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.cur.Load()
	if reflect.DeepEqual(old, next) {
		s.mu.Unlock()
		return nil
	}
	listeners := s.publish(old, next)
	s.mu.Unlock()

	notify(listeners, old, next)
	return nil
}

// publish swaps in next. Must hold s.mu.
func (s *Store) publish(old, next *Config) []func(old, cur *Config) {
	s.cur.Store(next)
	return append([]func(old, cur *Config){}, s.listeners...)
}

func notify(listeners []func(old, cur *Config), old, next *Config) {
	for _, fn := range listeners {
		fn(old, next)
	}
}

// Watch reloads the config whenever the file is written, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("config store has no backing file")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fw.Close()
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer fw.Close()
		base := filepath.Base(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if err := s.Reload(); err != nil {
					log.Warnf("Config reload failed, keeping previous settings: %v", err)
					continue
				}
				log.Debugf("Config reloaded from %s", s.path)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Errorf("Config watcher error: %v", err)
			}
		}
	}()
	return nil
}
