package quality

import (
	"time"

	"github.com/simonhull/fileops/operations"
)

// StandardScenarios returns the built-in fixture set covering the
// common editor and tooling patterns, plus negative scenarios that
// must produce no detections.
func StandardScenarios() []Scenario {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	event := func(path string, t operations.EventType, seq uint64, offset time.Duration) operations.Event {
		return operations.Event{
			Path: path,
			Type: t,
			Metadata: operations.Metadata{
				Timestamp:      base.Add(offset),
				SequenceNumber: seq,
			},
		}
	}
	moved := func(path, dest string, seq uint64, offset time.Duration) operations.Event {
		e := event(path, operations.EventMoved, seq, offset)
		e.DestPath = dest
		return e
	}

	return []Scenario{
		{
			Name:        "vscode_atomic_save",
			Description: "Editor writes a temp file and renames it over the original",
			Tags:        []string{"atomic", "editor"},
			Events: []operations.Event{
				event("doc.txt.tmp.1234", operations.EventCreated, 1, 0),
				moved("doc.txt.tmp.1234", "doc.txt", 2, 50*time.Millisecond),
			},
			Expected: []Expectation{{Type: operations.OpAtomicSave}},
		},
		{
			Name:        "safe_write_with_backup",
			Description: "Backup copy created, then the original is modified in place",
			Tags:        []string{"safe", "backup"},
			Events: []operations.Event{
				event("config.yaml.bak", operations.EventCreated, 1, 0),
				event("config.yaml", operations.EventModified, 2, 100*time.Millisecond),
			},
			Expected: []Expectation{{Type: operations.OpSafeWrite}},
		},
		{
			Name:        "batch_format_operation",
			Description: "Formatter touches several files in one directory at once",
			Tags:        []string{"batch", "tooling"},
			Events: []operations.Event{
				event("src/main.go", operations.EventModified, 1, 0),
				event("src/parser.go", operations.EventModified, 2, 20*time.Millisecond),
				event("src/lexer.go", operations.EventModified, 3, 40*time.Millisecond),
				event("src/token.go", operations.EventModified, 4, 60*time.Millisecond),
			},
			Expected: []Expectation{{Type: operations.OpBatchUpdate}},
		},
		{
			Name:        "rename_sequence",
			Description: "File renamed through an intermediate name",
			Tags:        []string{"rename"},
			Events: []operations.Event{
				moved("report.txt", "report.txt.tmp", 1, 0),
				moved("report.txt.tmp", "report-final.txt", 2, 30*time.Millisecond),
			},
			Expected: []Expectation{{Type: operations.OpRenameSequence}},
		},
		{
			Name:        "standalone_backup",
			Description: "Backup created with no follow-up write",
			Tags:        []string{"backup"},
			Events: []operations.Event{
				event("notes.md.bak", operations.EventCreated, 1, 0),
			},
			Expected: []Expectation{{Type: operations.OpBackupCreate}},
		},
		{
			Name:        "vim_swap_churn",
			Description: "Editor swap file churn that must be suppressed entirely",
			Tags:        []string{"negative", "noise"},
			Events: []operations.Event{
				event(".letter.txt.swp", operations.EventCreated, 1, 0),
				event(".letter.txt.swp", operations.EventModified, 2, 30*time.Millisecond),
				event(".letter.txt.swp", operations.EventDeleted, 3, 60*time.Millisecond),
			},
			Expected: nil,
		},
		{
			Name:        "lone_create",
			Description: "Single isolated create with no correlating follow-up",
			Tags:        []string{"negative"},
			Events: []operations.Event{
				event("download.iso", operations.EventCreated, 1, 0),
			},
			Expected: nil,
		},
	}
}
