package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/vittorius/zed-settings-sync/internal/interactive"
	"github.com/vittorius/zed-settings-sync/internal/remote"
)

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Dir receives the pulled files.
	Dir string

	// Force overwrites existing files without asking.
	Force bool

	// Fs is the filesystem files are written to (default: OS).
	Fs afero.Fs

	// Logger (default: slog.Default()).
	Logger *slog.Logger
}

// Loader pulls the bundle and writes its files locally.
type Loader struct {
	store  remote.Store
	io     interactive.IO
	dir    string
	force  bool
	fs     afero.Fs
	logger *slog.Logger
}

// NewLoader creates a loader writing into config.Dir.
func NewLoader(store remote.Store, io interactive.IO, config LoaderConfig) (*Loader, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("target directory cannot be empty")
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Loader{
		store:  store,
		io:     io,
		dir:    config.Dir,
		force:  config.Force,
		fs:     config.Fs,
		logger: config.Logger,
	}, nil
}

// LoadFiles pulls every file and writes it. Per-file restore failures are
// reported and skipped; fetch and terminal errors abort the load.
func (l *Loader) LoadFiles(ctx context.Context) error {
	files, err := l.store.Pull(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull files: %w", err)
	}

	for file, err := range files {
		if err != nil {
			l.logger.Warn("Skipping file that failed to load", "error", err)
			if werr := l.io.WriteLine(fmt.Sprintf("🔴 %v", err)); werr != nil {
				return werr
			}
			continue
		}

		if err := l.write(file); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) write(file remote.File) error {
	path := filepath.Join(l.dir, file.Name)

	exists, err := afero.Exists(l.fs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if exists && !l.force {
		if err := l.io.Write(fmt.Sprintf("🟡 %s exists, overwrite (y/n)? ", file.Name)); err != nil {
			return err
		}
		answer, err := l.io.ReadLine()
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}

		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			return l.io.WriteLine(fmt.Sprintf("Skipping %s", file.Name))
		}
		if err := l.io.WriteLine(fmt.Sprintf("Overwriting %s...", file.Name)); err != nil {
			return err
		}
	}

	if err := l.fs.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", l.dir, err)
	}
	if err := afero.WriteFile(l.fs, path, []byte(file.Content), os.FileMode(0644)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	l.logger.Debug("File written", "path", path)
	return l.io.WriteLine(fmt.Sprintf("Written %s", file.Name))
}
