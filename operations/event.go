// Package operations infers semantically meaningful file operations
// (atomic saves, safe writes, batch updates) from raw, possibly noisy
// streams of low-level filesystem change notifications.
package operations

import "time"

// EventType represents the type of raw filesystem notification.
type EventType int

const (
	// EventCreated is emitted when a file appears.
	EventCreated EventType = iota
	// EventModified is emitted when an existing file changes.
	EventModified
	// EventDeleted is emitted when a file is removed.
	EventDeleted
	// EventMoved is emitted when a file is renamed; DestPath carries the target.
	EventMoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// Metadata carries ordering and size information for a single event.
type Metadata struct {
	// Timestamp is when the notification was observed.
	Timestamp time.Time

	// SequenceNumber is strictly increasing across all events in a run.
	SequenceNumber uint64

	// SizeBefore is the file size before the change, when known.
	SizeBefore *uint64

	// SizeAfter is the file size after the change, when known.
	SizeAfter *uint64
}

// Event is a single raw filesystem change notification.
// Events are immutable once constructed; the detector never mutates them.
type Event struct {
	// Path is the file path the notification refers to.
	Path string

	// Type is the kind of change.
	Type EventType

	// DestPath is the move target. Set only when Type == EventMoved.
	DestPath string

	// Metadata carries timing, ordering and size details.
	Metadata Metadata
}

// Timestamp returns the observation time of the event.
func (e Event) Timestamp() time.Time {
	return e.Metadata.Timestamp
}
