package operations

import "time"

// OperationType classifies an inferred file operation.
type OperationType int

const (
	// OpUnknown is a single uncorrelated event that matched no pattern.
	OpUnknown OperationType = iota
	// OpAtomicSave is a write-to-temp-then-rename save (VSCode style).
	OpAtomicSave
	// OpSafeWrite is a backup-then-modify write (vim style).
	OpSafeWrite
	// OpRenameSequence is a chain of renames ending at a final path.
	OpRenameSequence
	// OpBackupCreate is the creation of a standalone backup copy.
	OpBackupCreate
	// OpBatchUpdate is a tool touching many related files at once.
	OpBatchUpdate
	// OpDirectoryOperation is correlated activity across one directory.
	OpDirectoryOperation
)

// String returns the string representation of the operation type.
func (t OperationType) String() string {
	switch t {
	case OpAtomicSave:
		return "atomic_save"
	case OpSafeWrite:
		return "safe_write"
	case OpRenameSequence:
		return "rename_sequence"
	case OpBackupCreate:
		return "backup_create"
	case OpBatchUpdate:
		return "batch_update"
	case OpDirectoryOperation:
		return "directory_operation"
	default:
		return "unknown"
	}
}

// Operation is an inferred semantic action built from one or more events.
// Operations are immutable once emitted by the detector.
type Operation struct {
	// ID uniquely identifies the operation (nanoid with "op" prefix).
	ID string

	// Type is the inferred classification.
	Type OperationType

	// PrimaryPath is the logical file the operation affects, e.g. the
	// final destination of an atomic save.
	PrimaryPath string

	// Events are the contributing events, sorted by sequence number.
	Events []Event

	// Confidence is the heuristic certainty of the classification, in [0, 1].
	Confidence float64

	// Description is a human-readable summary.
	Description string

	// StartTime is the timestamp of the first contributing event.
	StartTime time.Time

	// EndTime is the timestamp of the last contributing event.
	EndTime time.Time

	// FilesAffected lists every path touched, sorted and deduplicated.
	FilesAffected []string
}

// IsAtomic reports whether the operation replaced the target in one step.
func (o *Operation) IsAtomic() bool {
	return o.Type == OpAtomicSave || o.Type == OpRenameSequence
}

// IsSafe reports whether the original content was preserved until the
// new content was fully written.
func (o *Operation) IsSafe() bool {
	return o.Type == OpAtomicSave || o.Type == OpSafeWrite
}

// HasBackup reports whether the operation produced a backup copy.
func (o *Operation) HasBackup() bool {
	return o.Type == OpSafeWrite || o.Type == OpBackupCreate
}

// EventCount returns the number of contributing events.
func (o *Operation) EventCount() int {
	return len(o.Events)
}
