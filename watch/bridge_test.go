package watch

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"

	"github.com/simonhull/fileops/operations"
)

func TestMapOp(t *testing.T) {
	tests := []struct {
		name   string
		op     fsnotify.Op
		want   operations.EventType
		wantOK bool
	}{
		{"create", fsnotify.Create, operations.EventCreated, true},
		{"write", fsnotify.Write, operations.EventModified, true},
		{"remove", fsnotify.Remove, operations.EventDeleted, true},
		{"rename degrades to delete", fsnotify.Rename, operations.EventDeleted, true},
		{"chmod dropped", fsnotify.Chmod, 0, false},
		{"create wins over write", fsnotify.Create | fsnotify.Write, operations.EventCreated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mapOp(tt.op)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBridge_SequenceNumbersIncrease(t *testing.T) {
	b := &Bridge{sizes: make(map[string]uint64)}

	first := b.seq.Add(1)
	second := b.seq.Add(1)
	assert.Less(t, first, second)
}
