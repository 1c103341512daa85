package syncer

import (
	"github.com/vittorius/zed-settings-sync/internal/remote"
	"github.com/vittorius/zed-settings-sync/internal/watch"
)

// Service is the entry point for callers that manage watched paths: the
// watch daemon and anything serving requests on its behalf.
type Service struct {
	registry *watch.Registry
	orch     *Orchestrator
}

// NewService creates the registry and its watcher, wired to push changes
// to store. Events are not delivered until StartWatcher is called.
func NewService(store remote.Store, config *Config) (*Service, error) {
	config = config.withDefaults()

	orch := NewOrchestrator(store, config)
	registry, err := watch.NewRegistry(orch.HandleEvent, config.Logger)
	if err != nil {
		return nil, err
	}

	return &Service{registry: registry, orch: orch}, nil
}

// Watch starts watching path. It fails with watch.ErrAlreadyWatched when
// the path is already watched.
func (s *Service) Watch(path string) error {
	return s.registry.Watch(path)
}

// Unwatch stops watching path. It fails with watch.ErrNotWatched when the
// path is not watched.
func (s *Service) Unwatch(path string) error {
	return s.registry.Unwatch(path)
}

// StartWatcher begins event delivery. It may be called once.
func (s *Service) StartWatcher() error {
	return s.registry.StartWatcher()
}

// Paths returns the watched paths.
func (s *Service) Paths() []string {
	return s.registry.Paths()
}

// Close tears the watcher down. Pending events are dropped.
func (s *Service) Close() error {
	return s.registry.Close()
}
