package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTempFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"doc.txt.tmp", true},
		{"doc.txt.tmp.1234", true},
		{"upload.temp", true},
		{"notes.txt~", true},
		{".letter.txt.swp", true},
		{".letter.txt.swo", true},
		{"#scratch.org#", true},
		{".#lockfile", true},
		{"some/dir/doc.txt.tmp.9", true},
		{"doc.txt", false},
		{".gitignore", false},
		{"archive.tar.gz", false},
		{"tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTempFile(tt.path))
		})
	}
}

func TestIsBackupFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"config.yaml.bak", true},
		{"config.yaml.backup", true},
		{"main.go.orig", true},
		{"data.db.old", true},
		{"notes.txt~", true},
		{"config.yaml", false},
		{".bak", false},
		{"~", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBackupFile(tt.path))
		})
	}
}

func TestExtractBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{".orchestrator.py.tmp.84", "orchestrator.py"},
		{"doc.txt.tmp.1234", "doc.txt"},
		{".test.txt.swp", "test.txt"},
		{".main.go.swo", "main.go"},
		{"#notes.org#", "notes.org"},
		{"file~", "file"},
		{"upload.tmp", "upload"},
		{"upload.temp", "upload"},
		{".gitignore", ""},
		{"regular.txt", ""},
		{"~", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBaseName(tt.path))
		})
	}
}

func TestExtractOriginalPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"doc.txt.tmp.1234", "doc.txt"},
		{"project/src/.main.go.swp", "project/src/main.go"},
		{"/abs/dir/file~", "/abs/dir/file"},
		{"regular.txt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractOriginalPath(tt.path))
		})
	}
}

func TestConfig_StripBackupSuffix(t *testing.T) {
	cfg := Config{}
	cfg.setDefaults()

	tests := []struct {
		path string
		want string
	}{
		{"config.yaml.bak", "config.yaml"},
		{"etc/app/config.yaml.backup", "etc/app/config.yaml"},
		{"notes.txt~", "notes.txt"},
		{"config.yaml", ""},
		{".bak", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.stripBackupSuffix(tt.path))
		})
	}
}

func TestConfig_FindRealFile(t *testing.T) {
	cfg := Config{}
	cfg.setDefaults()

	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{
			name: "prefers latest real path",
			events: []Event{
				evt("old.txt", EventModified, 1, 0),
				evt("new.txt", EventModified, 2, 0),
			},
			want: "new.txt",
		},
		{
			name: "move destination wins",
			events: []Event{
				evt("doc.txt.tmp.1", EventCreated, 1, 0),
				mv("doc.txt.tmp.1", "doc.txt", 2, 0),
			},
			want: "doc.txt",
		},
		{
			name: "falls back to extracting from temp name",
			events: []Event{
				evt(".report.md.swp", EventCreated, 1, 0),
				evt(".report.md.swp", EventDeleted, 2, 0),
			},
			want: "report.md",
		},
		{
			name:   "nothing recoverable",
			events: []Event{evt(".#lock", EventCreated, 1, 0)},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.FindRealFile(tt.events))
		})
	}
}
