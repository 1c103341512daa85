package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrAlreadyWatched is returned when watching a path twice.
	ErrAlreadyWatched = errors.New("path is already being watched")
	// ErrNotWatched is returned when unwatching a path that is not watched.
	ErrNotWatched = errors.New("path is not being watched")
)

// nativeWatcher is the part of PathWatcher the registry drives.
type nativeWatcher interface {
	Watch(path string) error
	Unwatch(path string) error
	Start() error
	Close() error
}

// Registry is the set of watched paths layered over a PathWatcher. The set
// and the watcher are guarded by one mutex, so a path is in the set exactly
// when the native watch for it succeeded.
type Registry struct {
	mu      sync.Mutex
	paths   map[string]struct{}
	watcher nativeWatcher
}

// NewRegistry creates a registry whose watcher delivers events to handler.
func NewRegistry(handler Handler, logger *slog.Logger) (*Registry, error) {
	pw, err := NewPathWatcher(handler, logger)
	if err != nil {
		return nil, err
	}
	return newRegistry(pw), nil
}

func newRegistry(watcher nativeWatcher) *Registry {
	return &Registry{
		paths:   make(map[string]struct{}),
		watcher: watcher,
	}
}

// Watch starts watching path.
func (r *Registry) Watch(path string) error {
	key, err := normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.paths[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyWatched, key)
	}
	if err := r.watcher.Watch(key); err != nil {
		return err
	}
	r.paths[key] = struct{}{}
	return nil
}

// Unwatch stops watching path.
func (r *Registry) Unwatch(path string) error {
	key, err := normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.paths[key]; !ok {
		return fmt.Errorf("%w, failed to unwatch: %s", ErrNotWatched, key)
	}
	if err := r.watcher.Unwatch(key); err != nil {
		return err
	}
	delete(r.paths, key)
	return nil
}

// StartWatcher starts event delivery. A second call returns
// ErrAlreadyStarted.
func (r *Registry) StartWatcher() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watcher.Start()
}

// IsWatched reports whether path is in the set.
func (r *Registry) IsWatched(path string) bool {
	key, err := normalize(path)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.paths[key]
	return ok
}

// Paths returns the watched paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close tears down the watcher and empties the set. Events still in flight
// are dropped.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.paths)
	return r.watcher.Close()
}

func normalize(path string) (string, error) {
	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}
