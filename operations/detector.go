package operations

import (
	"sort"
	"sync"
	"time"

	"github.com/simonhull/fileops/internal/id"
)

// Detector groups correlated filesystem events and classifies each group
// into a semantic operation with a confidence score.
//
// The batch API (Detect, DetectAll) is pure: it holds no state between
// calls and identical input always yields identical output. The
// streaming API (DetectStreaming, Flush) buffers partially-observed
// groups internally and is safe for concurrent use.
type Detector struct {
	config Config

	mu      sync.Mutex
	pending map[string]*pendingGroup
	ready   []Operation
	// readyUnknown parks unmatched expired groups until a flush decides
	// whether the caller wants them. They are never returned by
	// DetectStreaming or Flush, only by FlushAll.
	readyUnknown []Operation
}

// pendingGroup buffers events awaiting maturity in streaming mode.
// Multiple path keys may point at the same group after a move joins them.
type pendingGroup struct {
	events []Event
	lastTS time.Time
}

// NewDetector creates a detector. Zero-valued config fields select
// defaults; invalid values are rejected with a validation error.
func NewDetector(cfg Config) (*Detector, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Detector{
		config:  cfg,
		pending: make(map[string]*pendingGroup),
	}, nil
}

// Config returns a copy of the detector's effective configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Detect classifies a bounded batch of events into operations. Events
// that match no pattern are dropped; use DetectAll to receive them as
// unknown operations instead.
func (d *Detector) Detect(events []Event) []Operation {
	return d.detect(events, false)
}

// DetectAll is Detect plus an unknown operation for every event group
// that matched no pattern.
func (d *Detector) DetectAll(events []Event) []Operation {
	return d.detect(events, true)
}

func (d *Detector) detect(events []Event, includeUnknown bool) []Operation {
	if len(events) == 0 {
		return nil
	}
	sorted := sortedBySequence(events)
	var ops []Operation
	for _, group := range d.groupByTime(sorted) {
		ops = append(ops, d.classifyTimeGroup(group, includeUnknown)...)
	}
	return ops
}

// DetectStreaming feeds a single event into the pending state and
// returns at most one matured operation. A group matures as soon as a
// pattern closes it (e.g. the rename of an atomic save arrives) or when
// the incoming event's timestamp shows the group's window has elapsed.
// Remaining matured operations are buffered and returned one per call.
func (d *Detector) DetectStreaming(e Event) *Operation {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expireLocked(e.Timestamp())
	group := d.addLocked(e)

	// Backup creation never closes a group early: a safe write starts
	// with the same backup event and needs the follow-up modification.
	if op := d.classifySubgroupExcept(sortedBySequence(group.events), "backup_create"); op != nil {
		d.removeGroupLocked(group)
		if op.Confidence >= d.config.MinConfidence {
			d.ready = append(d.ready, *op)
		}
	}

	if len(d.ready) > 0 {
		op := d.ready[0]
		d.ready = d.ready[1:]
		return &op
	}
	return nil
}

// Flush matures every pending group immediately and returns the
// resulting operations. Unmatched events are dropped.
func (d *Detector) Flush() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushLocked(false)
}

// FlushAll is Flush plus unknown operations for unmatched events, so
// callers that must not lose events can still observe them.
func (d *Detector) FlushAll() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushLocked(true)
}

// PendingEvents returns a copy of the events buffered in streaming mode,
// sorted by sequence number.
func (d *Detector) PendingEvents() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedBySequence(d.pendingEventsLocked())
}

// Reset discards all streaming state: pending groups and buffered
// matured operations.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = make(map[string]*pendingGroup)
	d.ready = nil
	d.readyUnknown = nil
}

// flushLocked classifies everything that is pending and drains the
// ready buffer. Caller holds d.mu.
func (d *Detector) flushLocked(includeUnknown bool) []Operation {
	events := sortedBySequence(d.pendingEventsLocked())
	d.pending = make(map[string]*pendingGroup)

	ops := d.ready
	d.ready = nil
	if includeUnknown {
		ops = append(ops, d.readyUnknown...)
	}
	d.readyUnknown = nil
	for _, group := range d.groupByTime(events) {
		ops = append(ops, d.classifyTimeGroup(group, includeUnknown)...)
	}
	return ops
}

// expireLocked matures groups whose window elapsed before now, judged by
// event time so replayed streams classify deterministically. Matured
// operations are parked in the ready buffer. Caller holds d.mu.
func (d *Detector) expireLocked(now time.Time) {
	var expired []Event
	seen := make(map[*pendingGroup]struct{})
	for _, group := range d.pending {
		if _, dup := seen[group]; dup {
			continue
		}
		seen[group] = struct{}{}
		if now.Sub(group.lastTS) > d.config.TimeWindow {
			expired = append(expired, group.events...)
			d.removeGroupLocked(group)
		}
	}
	if len(expired) == 0 {
		return
	}
	expired = sortedBySequence(expired)
	for _, group := range d.groupByTime(expired) {
		for _, op := range d.classifyTimeGroup(group, true) {
			if op.Type == OpUnknown {
				d.readyUnknown = append(d.readyUnknown, op)
			} else {
				d.ready = append(d.ready, op)
			}
		}
	}
}

// addLocked merges the event into pending state, joining any groups the
// event's path key (or move destination) connects. Caller holds d.mu.
func (d *Detector) addLocked(e Event) *pendingGroup {
	keys := d.eventKeys(e)

	var merged *pendingGroup
	for _, key := range keys {
		existing, ok := d.pending[key]
		if !ok || existing == merged {
			continue
		}
		if merged == nil {
			merged = existing
			continue
		}
		merged.events = append(merged.events, existing.events...)
		if existing.lastTS.After(merged.lastTS) {
			merged.lastTS = existing.lastTS
		}
		for k, g := range d.pending {
			if g == existing {
				d.pending[k] = merged
			}
		}
	}
	if merged == nil {
		merged = &pendingGroup{}
	}

	merged.events = append(merged.events, e)
	if ts := e.Timestamp(); ts.After(merged.lastTS) {
		merged.lastTS = ts
	}
	for _, key := range keys {
		d.pending[key] = merged
	}
	return merged
}

// removeGroupLocked drops every key pointing at the group. Caller holds d.mu.
func (d *Detector) removeGroupLocked(group *pendingGroup) {
	for key, g := range d.pending {
		if g == group {
			delete(d.pending, key)
		}
	}
}

func (d *Detector) pendingEventsLocked() []Event {
	var events []Event
	seen := make(map[*pendingGroup]struct{})
	for _, group := range d.pending {
		if _, dup := seen[group]; dup {
			continue
		}
		seen[group] = struct{}{}
		events = append(events, group.events...)
	}
	return events
}

// eventKeys returns the canonical path keys an event touches: the path
// itself (with temp or backup decoration stripped) and, for moves, the
// destination. Stripping is what lets ".doc.txt.tmp.1" and "doc.txt"
// land in the same group without an explicit move between them.
func (d *Detector) eventKeys(e Event) []string {
	keys := []string{d.pathKey(e.Path)}
	if e.Type == EventMoved && e.DestPath != "" {
		if key := d.pathKey(e.DestPath); key != keys[0] {
			keys = append(keys, key)
		}
	}
	return keys
}

func (d *Detector) pathKey(path string) string {
	if d.config.IsTempFile(path) {
		if original := ExtractOriginalPath(path); original != "" {
			return original
		}
	}
	if d.config.IsBackupFile(path) {
		if original := d.config.stripBackupSuffix(path); original != "" {
			return original
		}
	}
	return path
}

// groupByTime splits sequence-sorted events wherever the gap between
// consecutive events exceeds the window.
func (d *Detector) groupByTime(events []Event) [][]Event {
	if len(events) == 0 {
		return nil
	}
	var groups [][]Event
	start := 0
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp().Sub(events[i-1].Timestamp()) > d.config.TimeWindow {
			groups = append(groups, events[start:i])
			start = i
		}
	}
	return append(groups, events[start:])
}

// groupByPath partitions one time group into transitively connected
// path subgroups, preserving event order. Subgroups appear in order of
// their first event.
func (d *Detector) groupByPath(events []Event) [][]Event {
	type bucket struct{ events []Event }
	byKey := make(map[string]*bucket)
	var order []*bucket

	for _, e := range events {
		keys := d.eventKeys(e)
		var target *bucket
		for _, key := range keys {
			existing, ok := byKey[key]
			if !ok || existing == target {
				continue
			}
			if target == nil {
				target = existing
				continue
			}
			target.events = append(target.events, existing.events...)
			for k, b := range byKey {
				if b == existing {
					byKey[k] = target
				}
			}
			for i, b := range order {
				if b == existing {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
		}
		if target == nil {
			target = &bucket{}
			order = append(order, target)
		}
		target.events = append(target.events, e)
		for _, key := range keys {
			byKey[key] = target
		}
	}

	groups := make([][]Event, 0, len(order))
	for _, b := range order {
		groups = append(groups, sortedBySequence(b.events))
	}
	return groups
}

// classifyTimeGroup classifies one time window worth of events: path
// subgroups get the single-group rules; whatever remains unclaimed is
// offered to the batch and directory fallbacks, then optionally emitted
// as unknown operations.
func (d *Detector) classifyTimeGroup(events []Event, includeUnknown bool) []Operation {
	var ops []Operation
	var leftovers [][]Event

	for _, sub := range d.groupByPath(events) {
		if op := d.classifySubgroup(sub); op != nil {
			ops = append(ops, *op)
			continue
		}
		if d.isTempNoise(sub) {
			continue
		}
		leftovers = append(leftovers, sub)
	}

	if len(leftovers) > 0 {
		var flat []Event
		for _, sub := range leftovers {
			flat = append(flat, sub...)
		}
		flat = sortedBySequence(flat)

		var claimed *Operation
		if len(leftovers) > 1 {
			if claimed = d.detectBatchUpdate(flat); claimed == nil {
				claimed = d.detectDirectoryOperation(flat)
			}
		}
		switch {
		case claimed != nil:
			ops = append(ops, *claimed)
		case includeUnknown:
			for _, sub := range leftovers {
				ops = append(ops, *d.newUnknownOperation(sub))
			}
		}
	}

	return d.filterByConfidence(ops)
}

// classifySubgroup runs the priority-ordered single-group rules over one
// path subgroup. First match wins.
func (d *Detector) classifySubgroup(events []Event) *Operation {
	return d.classifySubgroupExcept(events, "")
}

func (d *Detector) classifySubgroupExcept(events []Event, skip string) *Operation {
	for _, rule := range d.ruleChain() {
		if rule.Name == skip {
			continue
		}
		if op := rule.Detect(events); op != nil {
			return op
		}
	}
	return nil
}

// isTempNoise reports whether a subgroup touches nothing but temp-styled
// paths: pure editor churn that should never surface to consumers.
func (d *Detector) isTempNoise(events []Event) bool {
	for _, e := range events {
		if !d.config.IsTempFile(e.Path) {
			return false
		}
		if e.Type == EventMoved && e.DestPath != "" && !d.config.IsTempFile(e.DestPath) {
			return false
		}
	}
	return true
}

func (d *Detector) filterByConfidence(ops []Operation) []Operation {
	if d.config.MinConfidence <= 0 {
		return ops
	}
	kept := ops[:0]
	for _, op := range ops {
		if op.Confidence >= d.config.MinConfidence {
			kept = append(kept, op)
		}
	}
	return kept
}

// newOperation assembles an immutable operation from a classified group.
func (d *Detector) newOperation(opType OperationType, primary string, events []Event, confidence float64, description string) *Operation {
	sorted := sortedBySequence(events)

	affected := make(map[string]struct{})
	for _, e := range sorted {
		affected[e.Path] = struct{}{}
		if e.Type == EventMoved && e.DestPath != "" {
			affected[e.DestPath] = struct{}{}
		}
	}
	files := make([]string, 0, len(affected))
	for path := range affected {
		files = append(files, path)
	}
	sort.Strings(files)

	opID, err := id.Generate("op")
	if err != nil {
		// Classification must never fail; an empty ID is the lesser evil.
		opID = ""
	}

	return &Operation{
		ID:            opID,
		Type:          opType,
		PrimaryPath:   primary,
		Events:        sorted,
		Confidence:    confidence,
		Description:   description,
		StartTime:     sorted[0].Timestamp(),
		EndTime:       sorted[len(sorted)-1].Timestamp(),
		FilesAffected: files,
	}
}

func sortedBySequence(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metadata.SequenceNumber < sorted[j].Metadata.SequenceNumber
	})
	return sorted
}
