package operations

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/simonhull/fileops/internal/errors"
)

// OperationHandler consumes completed operations. A non-nil error (or a
// panic) marks the delivery as failed and queues the operation for retry.
type OperationHandler func(Operation) error

// AutoFlushHandler gives the streaming detector a live, push-based
// interface: a background goroutine periodically matures groups whose
// window has expired and hands completed operations to the registered
// callback. Deliveries that fail are queued for retry rather than lost.
//
// The mutex is never held across the callback, so a callback may safely
// re-enter the handler.
type AutoFlushHandler struct {
	detector   *Detector
	logger     *slog.Logger
	onComplete OperationHandler

	mu          sync.Mutex
	ready       []Operation // matured, awaiting the next flush tick
	failed      []Operation // FIFO retry queue of failed deliveries
	lastArrival time.Time
	started     bool
	done        chan struct{}

	wg sync.WaitGroup
}

// NewAutoFlushHandler creates a handler around a fresh streaming
// detector. A nil logger discards log output; a nil callback makes
// every delivery a trivial success.
func NewAutoFlushHandler(cfg Config, logger *slog.Logger, onComplete OperationHandler) (*AutoFlushHandler, error) {
	detector, err := NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AutoFlushHandler{
		detector:   detector,
		logger:     logger,
		onComplete: onComplete,
	}, nil
}

// Start launches the background flush goroutine. It must be matched by
// a Stop on teardown.
func (h *AutoFlushHandler) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return errors.Conflict("auto-flush handler already started")
	}
	h.started = true
	h.done = make(chan struct{})
	h.wg.Add(1)
	go h.run()
	return nil
}

// Stop terminates the flush goroutine within one tick and waits for it.
// Pending and failed state remain inspectable afterwards. Stopping a
// handler that was never started is a no-op.
func (h *AutoFlushHandler) Stop() error {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = false
	done := h.done
	h.mu.Unlock()

	close(done)
	h.wg.Wait()
	return nil
}

// AddEvent feeds one event to the streaming detector. Operations the
// detector closes immediately are buffered, not delivered; delivery
// happens only at flush time so behavior is uniform whether a group
// matures by pattern closure or by timeout.
func (h *AutoFlushHandler) AddEvent(e Event) {
	op := h.detector.DetectStreaming(e)

	h.mu.Lock()
	h.lastArrival = time.Now()
	if op != nil {
		h.ready = append(h.ready, *op)
	}
	h.mu.Unlock()
}

// Flush matures everything pending right now and delivers the results.
// Returns the number of operations handed to the callback (successfully
// or not).
func (h *AutoFlushHandler) Flush() int {
	ops := h.takeReady(true)
	for _, op := range ops {
		h.emit(op)
	}
	return len(ops)
}

// Clear discards pending, not-yet-matured events. The failed-delivery
// queue is a separate concern and is left untouched.
func (h *AutoFlushHandler) Clear() {
	h.detector.Reset()
	h.mu.Lock()
	h.ready = nil
	h.mu.Unlock()
}

// PendingEvents returns a copy of the events buffered by the streaming
// detector, for diagnostics.
func (h *AutoFlushHandler) PendingEvents() []Event {
	return h.detector.PendingEvents()
}

// GetFailedOperations returns a defensive copy of the retry queue.
func (h *AutoFlushHandler) GetFailedOperations() []Operation {
	h.mu.Lock()
	defer h.mu.Unlock()
	failed := make([]Operation, len(h.failed))
	copy(failed, h.failed)
	return failed
}

// FailedOperationsCount returns the length of the retry queue.
func (h *AutoFlushHandler) FailedOperationsCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failed)
}

// RetryFailedOperations re-invokes the callback for every queued failed
// operation in FIFO order and reports how many succeeded. The queue is
// taken atomically, so concurrent retries never deliver the same
// operation twice; operations that fail again are requeued in order.
func (h *AutoFlushHandler) RetryFailedOperations() int {
	h.mu.Lock()
	queue := h.failed
	h.failed = nil
	h.mu.Unlock()

	succeeded := 0
	var requeue []Operation
	for _, op := range queue {
		if err := h.deliver(op); err != nil {
			h.logger.Warn("retry failed", "operation", op.ID, "error", err)
			requeue = append(requeue, op)
			continue
		}
		succeeded++
	}

	if len(requeue) > 0 {
		h.mu.Lock()
		// Requeued operations predate anything that failed while we
		// were retrying, so they go to the front.
		h.failed = append(requeue, h.failed...)
		h.mu.Unlock()
	}
	return succeeded
}

// ClearFailedOperations drops the entire retry queue and returns how
// many operations were discarded.
func (h *AutoFlushHandler) ClearFailedOperations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := len(h.failed)
	h.failed = nil
	return dropped
}

// run is the background flush loop. It ticks at half the detection
// window and flushes once the stream has been quiet for a full window.
func (h *AutoFlushHandler) run() {
	defer h.wg.Done()

	interval := h.detector.Config().TimeWindow / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			for _, op := range h.takeDue() {
				h.emit(op)
			}
		}
	}
}

// takeDue collects operations whose delivery is due at this tick:
// everything already matured, plus a full flush when the stream has
// been quiet for at least one window.
func (h *AutoFlushHandler) takeDue() []Operation {
	h.mu.Lock()
	quiet := !h.lastArrival.IsZero() && time.Since(h.lastArrival) >= h.detector.Config().TimeWindow
	h.mu.Unlock()
	return h.takeReady(quiet)
}

// takeReady drains the ready buffer, optionally flushing the detector
// first. Unmatched events surface as unknown operations so nothing is
// silently lost.
func (h *AutoFlushHandler) takeReady(flush bool) []Operation {
	var flushed []Operation
	if flush {
		flushed = h.detector.FlushAll()
	}

	h.mu.Lock()
	ops := h.ready
	h.ready = nil
	h.mu.Unlock()

	return append(ops, flushed...)
}

// emit hands one operation to the callback. Failures (errors or panics)
// are appended to the retry queue; they never propagate to the flush loop.
func (h *AutoFlushHandler) emit(op Operation) bool {
	err := h.deliver(op)
	if err == nil {
		return true
	}
	h.logger.Warn("operation delivery failed, queued for retry",
		"operation", op.ID, "type", op.Type.String(), "path", op.PrimaryPath, "error", err)
	h.mu.Lock()
	h.failed = append(h.failed, op)
	h.mu.Unlock()
	return false
}

// deliver invokes the callback, converting a panic into an error. A nil
// callback is a trivial success.
func (h *AutoFlushHandler) deliver(op Operation) (err error) {
	if h.onComplete == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internalf("operation callback panicked: %v", r)
		}
	}()
	return h.onComplete(op)
}
