// Package watch turns native file system notifications into sequential
// callbacks and keeps the set of watched paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("watcher already started")
	// ErrNativeWatch wraps failures of the underlying fsnotify watcher.
	ErrNativeWatch = errors.New("native watcher failure")
	// ErrClosed is returned by operations on a closed watcher.
	ErrClosed = errors.New("watcher is closed")
)

// result is one raw value read from fsnotify, either an event or an error.
type result struct {
	event fsnotify.Event
	err   error
}

// PathWatcher watches files and directory trees and hands every change to a
// single Handler.
//
// A pump goroutine forwards fsnotify output into a channel of capacity 1.
// When the consumer has not drained the previous value the pump blocks,
// which in turn stalls fsnotify's reader.
type PathWatcher struct {
	watcher *fsnotify.Watcher
	handler Handler
	logger  *slog.Logger

	results chan result
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu sync.Mutex
	// roots are the paths passed to Watch.
	roots map[string]struct{}
	// native are the paths registered with fsnotify: the roots plus every
	// directory below them.
	native  map[string]struct{}
	started bool
	closed  bool
}

// NewPathWatcher creates a watcher that will deliver events to handler once
// started. A nil logger uses slog.Default().
func NewPathWatcher(handler Handler, logger *slog.Logger) (*PathWatcher, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create fsnotify watcher: %w", ErrNativeWatch, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pw := &PathWatcher{
		watcher: watcher,
		handler: handler,
		logger:  logger,
		results: make(chan result, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		roots:   make(map[string]struct{}),
		native:  make(map[string]struct{}),
	}

	pw.wg.Add(1)
	go pw.pump()

	return pw, nil
}

// Start begins delivering events to the handler. It may be called once.
func (pw *PathWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed {
		return ErrClosed
	}
	if pw.started {
		return ErrAlreadyStarted
	}

	pw.started = true
	pw.wg.Add(1)
	go pw.consume()

	return nil
}

// Watch adds path to the watcher. Directories are watched recursively and
// subdirectories created later are picked up automatically. On failure
// nothing stays registered.
func (pw *PathWatcher) Watch(path string) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed {
		return ErrClosed
	}

	root := filepath.Clean(path)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: failed to watch %s: %w", ErrNativeWatch, root, err)
	}

	var added []string
	if info.IsDir() {
		added, err = pw.addTreeLocked(root)
	} else {
		added, err = pw.addLocked(root, nil)
	}
	if err != nil {
		for _, p := range added {
			_ = pw.watcher.Remove(p)
			delete(pw.native, p)
		}
		return fmt.Errorf("%w: failed to watch %s: %w", ErrNativeWatch, root, err)
	}

	pw.roots[root] = struct{}{}
	pw.logger.Debug("Watching path", "path", root, "native", len(added))
	return nil
}

// Unwatch removes path and the directories watched below it. Directories
// that are also below another watched root stay registered.
func (pw *PathWatcher) Unwatch(path string) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed {
		return ErrClosed
	}

	root := filepath.Clean(path)
	if _, ok := pw.roots[root]; !ok {
		return fmt.Errorf("%w: failed to unwatch %s: %w", ErrNativeWatch, root, fsnotify.ErrNonExistentWatch)
	}

	delete(pw.roots, root)
	var stale []string
	for p := range pw.native {
		if within(p, root) && !pw.coveredLocked(p) {
			stale = append(stale, p)
		}
	}
	sort.Strings(stale)

	for _, p := range stale {
		if err := pw.watcher.Remove(p); err != nil {
			if p == root {
				pw.roots[root] = struct{}{}
				return fmt.Errorf("%w: failed to unwatch %s: %w", ErrNativeWatch, root, err)
			}
			if !errors.Is(err, fsnotify.ErrNonExistentWatch) {
				pw.logger.Warn("Failed to remove nested watch", "path", p, "error", err)
			}
		}
		delete(pw.native, p)
	}

	pw.logger.Debug("Stopped watching path", "path", root)
	return nil
}

// Close stops both goroutines and releases the fsnotify watcher. Events not
// yet handled are dropped. Close must not be called from the handler.
func (pw *PathWatcher) Close() error {
	pw.mu.Lock()
	if pw.closed {
		pw.mu.Unlock()
		return nil
	}
	pw.closed = true
	pw.mu.Unlock()

	close(pw.done)
	pw.cancel()

	err := pw.watcher.Close()
	pw.wg.Wait()

	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// pump reads fsnotify output and forwards it to the consumer.
func (pw *PathWatcher) pump() {
	defer pw.wg.Done()

	for {
		var r result

		select {
		case <-pw.done:
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			pw.track(event)
			r = result{event: event}

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			r = result{err: err}
		}

		select {
		case pw.results <- r:
		case <-pw.done:
			return
		}
	}
}

// consume invokes the handler once per forwarded result.
func (pw *PathWatcher) consume() {
	defer pw.wg.Done()

	for {
		select {
		case <-pw.done:
			return

		case r := <-pw.results:
			if pw.ctx.Err() != nil {
				return
			}
			if r.err != nil {
				pw.handler(pw.ctx, Event{}, fmt.Errorf("%w: %w", ErrNativeWatch, r.err))
				continue
			}
			pw.handler(pw.ctx, convertEvent(r.event), nil)
		}
	}
}

// track keeps the native watch set in line with directories appearing and
// disappearing below the roots.
func (pw *PathWatcher) track(event fsnotify.Event) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed || event.Name == "" {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if !pw.coveredLocked(event.Name) {
			return
		}
		info, err := os.Lstat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if _, err := pw.addTreeLocked(event.Name); err != nil {
			pw.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
		}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(pw.native, event.Name)
	}
}

// addTreeLocked registers dir and every directory below it.
func (pw *PathWatcher) addTreeLocked(dir string) ([]string, error) {
	var added []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		added, err = pw.addLocked(p, added)
		return err
	})
	return added, err
}

func (pw *PathWatcher) addLocked(p string, added []string) ([]string, error) {
	if _, ok := pw.native[p]; ok {
		return added, nil
	}
	if err := pw.watcher.Add(p); err != nil {
		return added, err
	}
	pw.native[p] = struct{}{}
	return append(added, p), nil
}

// coveredLocked reports whether p is a root or lies below one.
func (pw *PathWatcher) coveredLocked(p string) bool {
	for root := range pw.roots {
		if within(p, root) {
			return true
		}
	}
	return false
}

func within(p, root string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
