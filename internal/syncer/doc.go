/*
Package syncer wires the watched-path registry to the remote store.

Two flows live here.

# Push on change

A Service owns a watch.Registry whose handler is Orchestrator.HandleEvent.
Every content-modify event for a watched file is turned into a
remote.TransferRecord and pushed:

	store, _ := gist.New(gistID, token)
	svc, err := syncer.NewService(store, syncer.DefaultConfig())
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Watch(configDir); err != nil {
		return err
	}
	if err := svc.StartWatcher(); err != nil {
		return err
	}

Create, remove, rename and metadata events are ignored. A failed read or push
is reported once to the configured notify.Notifier and dropped; there is no
retry and no queue. Pushes never change the registry.

# Pull and write

A Loader pulls the whole bundle and writes every file into a directory,
asking through an interactive.IO before it overwrites an existing file
unless Force is set. A file that fails to restore is reported and the
remaining files are still written.
*/
package syncer
