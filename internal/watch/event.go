package watch

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a file system event.
type Kind int

const (
	// KindOther is an event with no more specific classification.
	KindOther Kind = iota
	// KindCreate indicates a file or directory was created.
	KindCreate
	// KindModifyData indicates the content of a file changed.
	KindModifyData
	// KindModifyMetadata indicates permissions or other attributes changed.
	KindModifyMetadata
	// KindModifyName indicates a file was renamed or moved away.
	KindModifyName
	// KindRemove indicates a file or directory was deleted.
	KindRemove
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindModifyData:
		return "modify(data)"
	case KindModifyMetadata:
		return "modify(metadata)"
	case KindModifyName:
		return "modify(name)"
	case KindRemove:
		return "remove"
	default:
		return "other"
	}
}

// Event is a file system change delivered to a Handler.
type Event struct {
	Kind Kind
	// Paths holds the affected paths. It may be empty.
	Paths []string
}

// Handler receives every event, or every error reported by the native
// watcher, in arrival order. Calls never overlap. The context is cancelled
// when the watcher is closed.
type Handler func(ctx context.Context, ev Event, err error)

func convertEvent(event fsnotify.Event) Event {
	var kind Kind
	switch {
	case event.Has(fsnotify.Create):
		kind = KindCreate
	case event.Has(fsnotify.Write):
		kind = KindModifyData
	case event.Has(fsnotify.Remove):
		kind = KindRemove
	case event.Has(fsnotify.Rename):
		kind = KindModifyName
	case event.Has(fsnotify.Chmod):
		kind = KindModifyMetadata
	default:
		kind = KindOther
	}

	var paths []string
	if event.Name != "" {
		paths = []string{event.Name}
	}
	return Event{Kind: kind, Paths: paths}
}
