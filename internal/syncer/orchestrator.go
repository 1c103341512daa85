package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/vittorius/zed-settings-sync/internal/notify"
	"github.com/vittorius/zed-settings-sync/internal/remote"
	"github.com/vittorius/zed-settings-sync/internal/watch"
)

const (
	// MsgSynced is reported after a successful push.
	MsgSynced = "Successfully synced"

	// MsgWatcherError is reported when an event cannot be processed. The
	// details only go to the log.
	MsgWatcherError = "File watcher internal error, check the server logs"
)

// Config holds the collaborators shared by the orchestrator and the service.
type Config struct {
	// Fs is the filesystem changed files are read from (default: OS).
	Fs afero.Fs

	// Notifier receives the outcome of every push (default: log).
	Notifier notify.Notifier

	// Logger for engine activity (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fs:     afero.NewOsFs(),
		Logger: slog.Default(),
	}
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		out.Notifier = notify.NewLog(out.Logger)
		return out
	}
	if c.Fs != nil {
		out.Fs = c.Fs
	}
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	out.Notifier = c.Notifier
	if out.Notifier == nil {
		out.Notifier = notify.NewLog(out.Logger)
	}
	return out
}

// Orchestrator turns change events into pushes.
type Orchestrator struct {
	store    remote.Store
	fs       afero.Fs
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator pushing to store. A nil config
// uses DefaultConfig().
func NewOrchestrator(store remote.Store, config *Config) *Orchestrator {
	config = config.withDefaults()
	return &Orchestrator{
		store:    store,
		fs:       config.Fs,
		notifier: config.Notifier,
		logger:   config.Logger,
	}
}

// HandleEvent is the watch.Handler of the service's registry. Only
// content-modify events of files ending in remote.Extension lead to a push.
// Errors from the native watcher are logged, not notified.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev watch.Event, err error) {
	if err != nil {
		o.logger.Error("Path watcher error", "error", err)
		return
	}

	record, err := o.prepare(ev)
	if err != nil {
		o.logger.Error("Could not process file event", "error", err)
		o.notifier.Notify(ctx, notify.Error("", MsgWatcherError))
		return
	}
	if record == nil {
		return
	}

	if err := o.store.Push(ctx, *record); err != nil {
		o.logger.Error("Could not sync file", "path", record.Path, "error", err)
		o.notifier.Notify(ctx, notify.Error(record.FileName, err.Error()))
		return
	}

	o.notifier.Notify(ctx, notify.Info(record.FileName, MsgSynced))
}

// prepare reads the file behind a content-modify event. It returns nil for
// events that must not be pushed.
func (o *Orchestrator) prepare(ev watch.Event) (*remote.TransferRecord, error) {
	o.logger.Debug("Processing file watcher event", "kind", ev.Kind, "paths", ev.Paths)

	if ev.Kind != watch.KindModifyData {
		return nil, nil
	}
	if len(ev.Paths) == 0 {
		return nil, fmt.Errorf("event did not provide the path of the modified file")
	}

	path := ev.Paths[0]
	if !remote.HasExtension(path) {
		o.logger.Debug("Skipping file without a synced extension", "path", path)
		return nil, nil
	}

	body, err := afero.ReadFile(o.fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read the modified file %s: %w", path, err)
	}

	record, err := remote.NewTransferRecord(path, string(body))
	if err != nil {
		return nil, err
	}
	return &record, nil
}
