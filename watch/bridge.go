// Package watch bridges OS filesystem notifications into the event
// model consumed by the operation detector. It deliberately performs no
// debouncing or correlation of its own: raw events are stamped with a
// monotonic sequence number and handed downstream, where the detector's
// time-window grouping does the interpretation.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/simonhull/fileops/operations"
)

// Bridge watches paths with fsnotify and emits operations.Event values.
type Bridge struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	seq atomic.Uint64

	mu    sync.Mutex
	sizes map[string]uint64 // last observed size per path

	events chan operations.Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a bridge. Callers add paths with Watch and then run Start.
func New(logger *slog.Logger, opts Options) (*Bridge, error) {
	opts.setDefaults()

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Bridge{
		logger:  logger,
		opts:    opts,
		watcher: watcher,
		sizes:   make(map[string]uint64),
		events:  make(chan operations.Event, opts.Buffer),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a path to be monitored. Directories are watched recursively.
func (b *Bridge) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return b.watchDir(path)
	}
	// Single files are covered by watching their parent directory.
	return b.watcher.Add(filepath.Dir(path))
}

// watchDir recursively watches a directory tree.
func (b *Bridge) watchDir(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			b.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}

		if b.opts.shouldIgnore(p) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if err := b.watcher.Add(p); err != nil {
			b.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}

		b.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start begins translating notifications. It blocks until the context
// is cancelled or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	b.wg.Add(1)
	go b.processEvents(ctx)

	select {
	case <-ctx.Done():
	case <-b.done:
	}
	return nil
}

// Stop stops the bridge and releases the underlying watcher.
func (b *Bridge) Stop() error {
	select {
	case <-b.done:
		return nil
	default:
	}
	close(b.done)
	err := b.watcher.Close()
	b.wg.Wait()
	close(b.events)
	return err
}

// Events returns the channel of translated filesystem events.
func (b *Bridge) Events() <-chan operations.Event {
	return b.events
}

// Errors returns the channel of watcher errors.
func (b *Bridge) Errors() <-chan error {
	return b.errors
}

func (b *Bridge) processEvents(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			b.handleFsnotifyEvent(ctx, event)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			select {
			case b.errors <- err:
			default:
				b.logger.Warn("error channel full, dropping", "error", err)
			}
		}
	}
}

func (b *Bridge) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	if b.opts.shouldIgnore(path) {
		return
	}

	// New directories join the watch set; they produce no event.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := b.watchDir(path); err != nil {
				b.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	eventType, ok := mapOp(event.Op)
	if !ok {
		return
	}

	e := operations.Event{
		Path: path,
		Type: eventType,
		Metadata: operations.Metadata{
			Timestamp:      time.Now(),
			SequenceNumber: b.seq.Add(1),
		},
	}
	b.stampSizes(&e)

	select {
	case b.events <- e:
	case <-ctx.Done():
	case <-b.done:
	}
}

// mapOp translates an fsnotify operation into the detector's event
// model. fsnotify reports a rename as a bare Rename on the old path
// with no destination, so it degrades to a delete; the detector's
// delete-then-create correlation recovers the semantic move.
func mapOp(op fsnotify.Op) (operations.EventType, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return operations.EventCreated, true
	case op&fsnotify.Write != 0:
		return operations.EventModified, true
	case op&fsnotify.Remove != 0, op&fsnotify.Rename != 0:
		return operations.EventDeleted, true
	default:
		// Chmod carries no content change worth correlating.
		return 0, false
	}
}

// stampSizes records size-before from the last observation and
// size-after from a fresh stat, when the file still exists.
func (b *Bridge) stampSizes(e *operations.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if before, ok := b.sizes[e.Path]; ok {
		v := before
		e.Metadata.SizeBefore = &v
	}

	switch e.Type {
	case operations.EventDeleted:
		delete(b.sizes, e.Path)
	default:
		if info, err := os.Stat(e.Path); err == nil && !info.IsDir() {
			size := uint64(info.Size())
			e.Metadata.SizeAfter = &size
			b.sizes[e.Path] = size
		}
	}
}

// Pipe drains the bridge's event channel into an aggregator until the
// context is cancelled or the channel closes. It is a convenience for
// the common bridge-into-AutoFlushHandler wiring.
func Pipe(ctx context.Context, b *Bridge, handler *operations.AutoFlushHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-b.Events():
			if !ok {
				return
			}
			handler.AddEvent(e)
		}
	}
}
