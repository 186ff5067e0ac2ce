package registry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current registry snapshot for long-running processes
// and swaps it atomically on reload. Validations running during a reload
// see either the old snapshot or the new one, never a mix.
type Store struct {
	path string

	mu  sync.RWMutex
	reg *Registry
}

// OpenStore loads the registry at path and returns a store around it.
func OpenStore(path string) (*Store, error) {
	reg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, reg: reg}, nil
}

// Snapshot returns the current registry. The returned value is immutable.
func (s *Store) Snapshot() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

// Reload re-reads the registry file and swaps the snapshot in. A file
// that fails schema validation, or one that mutates immutable fields
// without a version bump, leaves the previous snapshot in place.
func (s *Store) Reload() error {
	next, err := Load(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if violations := ValidateMutability(s.reg, next); len(violations) > 0 {
		return fmt.Errorf("registry: reload rejected: %s", violations[0])
	}
	s.reg = next
	return nil
}

// Watch blocks watching the registry file for writes, reloading after a
// 500ms debounce. Returns when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("registry: create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return fmt.Errorf("registry: watch %q: %w", s.path, err)
	}

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := s.Reload(); err != nil {
						fmt.Fprintf(os.Stderr, "registry reload failed: %v\n", err)
					} else {
						fmt.Fprintf(os.Stderr, "registry reloaded: version %s\n", s.Snapshot().Version())
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}
