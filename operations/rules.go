package operations

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/simonhull/fileops/internal/errors"
)

// RuleFunc examines a correlated group of events and either claims it as
// an operation or returns nil to let lower-priority rules try. Rule
// functions must be pure: identical input yields identical output.
type RuleFunc func(events []Event) *Operation

// Rule is a named, priority-ordered classification rule. Higher
// priorities are evaluated first; the first match wins.
type Rule struct {
	Name        string
	Priority    int
	Description string
	Detect      RuleFunc
}

// Built-in rule priorities. Custom rules may interleave anywhere.
const (
	priorityAtomicSave     = 90
	priorityRenameSequence = 80
	prioritySafeWrite      = 70
	priorityBackupCreate   = 60
	priorityBatchUpdate    = 50
	priorityDirectoryOp    = 40
)

var (
	registryMu  sync.RWMutex
	customRules []Rule
)

// RegisterRule adds a custom classification rule evaluated alongside the
// built-in rules according to its priority.
func RegisterRule(rule Rule) error {
	if rule.Name == "" {
		return errors.Validation("rule name is required")
	}
	if rule.Detect == nil {
		return errors.Validation("rule detect function is required")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, existing := range customRules {
		if existing.Name == rule.Name {
			return errors.AlreadyExistsf("rule %q is already registered", rule.Name)
		}
	}
	customRules = append(customRules, rule)
	return nil
}

// ClearRules removes all custom rules. Built-in rules are unaffected.
func ClearRules() {
	registryMu.Lock()
	defer registryMu.Unlock()
	customRules = nil
}

// RegisteredRules returns a copy of the custom rules, sorted by priority
// (highest first).
func RegisteredRules() []Rule {
	registryMu.RLock()
	defer registryMu.RUnlock()
	rules := make([]Rule, len(customRules))
	copy(rules, customRules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return rules
}

// ruleChain assembles the built-in single-group rules for this detector
// merged with the custom registry, sorted by priority (highest first).
func (d *Detector) ruleChain() []Rule {
	rules := []Rule{
		{Name: "atomic_save", Priority: priorityAtomicSave, Detect: d.detectAtomicSave},
		{Name: "rename_sequence", Priority: priorityRenameSequence, Detect: d.detectRenameSequence},
		{Name: "safe_write", Priority: prioritySafeWrite, Detect: d.detectSafeWrite},
		{Name: "backup_create", Priority: priorityBackupCreate, Detect: d.detectBackupCreate},
	}
	rules = append(rules, RegisteredRules()...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return rules
}

// gapFactor scores how tightly packed a group is relative to the
// detection window: 1.0 for instantaneous, 0.0 at or beyond the window.
func (d *Detector) gapFactor(events []Event) float64 {
	if len(events) < 2 {
		return 1.0
	}
	span := events[len(events)-1].Timestamp().Sub(events[0].Timestamp())
	if span <= 0 {
		return 1.0
	}
	if span >= d.config.TimeWindow {
		return 0.0
	}
	return 1.0 - float64(span)/float64(d.config.TimeWindow)
}

// tempCanonicity scores how closely a temp path follows a well-known
// editor convention: 1.0 for the VSCode ".name.ext.tmp.N" shape, lower
// for generic temp names.
func tempCanonicity(path string) float64 {
	base := filepath.Base(path)
	switch {
	case vscodeTempRe.MatchString(base):
		return 1.0
	case vimSwapRe.MatchString(base) || emacsAutosaveRe.MatchString(base):
		return 0.9
	default:
		return 0.6
	}
}

// detectAtomicSave recognizes write-to-temp-then-replace saves:
//
//   - created(temp) followed by moved(temp -> real)
//   - created(temp), deleted(temp), created(real)
//   - deleted(real) followed by created(real) on the same path
func (d *Detector) detectAtomicSave(events []Event) *Operation {
	if len(events) < 2 {
		return nil
	}

	// Temp file renamed onto the real target.
	var tempCreated string
	for _, e := range events {
		if e.Type == EventCreated && d.config.IsTempFile(e.Path) {
			tempCreated = e.Path
			continue
		}
		if tempCreated != "" && e.Type == EventMoved && e.Path == tempCreated && e.DestPath != "" && !d.config.IsTempFile(e.DestPath) {
			confidence := clampConfidence(0.8 + 0.12*tempCanonicity(tempCreated) + 0.06*d.gapFactor(events))
			return d.newOperation(OpAtomicSave, e.DestPath, events, confidence,
				fmt.Sprintf("Atomic save of %s via temp file", filepath.Base(e.DestPath)))
		}
	}

	// Temp file written then discarded in favor of a fresh real file.
	var tempDeleted bool
	for _, e := range events {
		switch {
		case e.Type == EventDeleted && e.Path == tempCreated && tempCreated != "":
			tempDeleted = true
		case tempDeleted && e.Type == EventCreated && !d.config.IsTempFile(e.Path):
			confidence := clampConfidence(0.8 + 0.12*tempCanonicity(tempCreated) + 0.06*d.gapFactor(events))
			return d.newOperation(OpAtomicSave, e.Path, events, confidence,
				fmt.Sprintf("Atomic save of %s via temp file swap", filepath.Base(e.Path)))
		}
	}

	// Same real path deleted then immediately recreated.
	var deletedPath string
	for _, e := range events {
		switch {
		case e.Type == EventDeleted && !d.config.IsTempFile(e.Path):
			deletedPath = e.Path
		case e.Type == EventCreated && e.Path == deletedPath && deletedPath != "":
			confidence := clampConfidence(0.88 + 0.08*d.gapFactor(events))
			return d.newOperation(OpAtomicSave, e.Path, events, confidence,
				fmt.Sprintf("Atomic save of %s via delete and recreate", filepath.Base(e.Path)))
		}
	}

	return nil
}

// detectRenameSequence recognizes chains of two or more renames where
// each move starts at the previous destination.
func (d *Detector) detectRenameSequence(events []Event) *Operation {
	var moves []Event
	for _, e := range events {
		if e.Type == EventMoved && e.DestPath != "" {
			moves = append(moves, e)
		}
	}
	if len(moves) < 2 {
		return nil
	}
	for i := 1; i < len(moves); i++ {
		if moves[i].Path != moves[i-1].DestPath {
			return nil
		}
	}
	final := moves[len(moves)-1].DestPath
	if d.config.IsTempFile(final) {
		return nil
	}
	confidence := clampConfidence(0.78 + 0.12*d.gapFactor(events))
	return d.newOperation(OpRenameSequence, final, events, confidence,
		fmt.Sprintf("Rename sequence ending at %s", filepath.Base(final)))
}

// detectSafeWrite recognizes backup-then-modify writes: a backup copy is
// created, then the original file is modified in place.
func (d *Detector) detectSafeWrite(events []Event) *Operation {
	if len(events) < 2 {
		return nil
	}
	var backupPath string
	for _, e := range events {
		if e.Type == EventCreated && d.config.IsBackupFile(e.Path) {
			backupPath = e.Path
			continue
		}
		if backupPath == "" {
			continue
		}
		if e.Type != EventModified && e.Type != EventCreated {
			continue
		}
		if d.config.IsBackupFile(e.Path) || d.config.IsTempFile(e.Path) {
			continue
		}
		exactMatch := 0.0
		if d.config.stripBackupSuffix(backupPath) == e.Path {
			exactMatch = 1.0
		}
		confidence := clampConfidence(0.72 + 0.18*exactMatch + 0.05*d.gapFactor(events))
		return d.newOperation(OpSafeWrite, e.Path, events, confidence,
			fmt.Sprintf("Safe write of %s with backup %s", filepath.Base(e.Path), filepath.Base(backupPath)))
	}
	return nil
}

// detectBackupCreate recognizes a lone backup copy appearing with no
// accompanying change to the original.
func (d *Detector) detectBackupCreate(events []Event) *Operation {
	if len(events) != 1 {
		return nil
	}
	e := events[0]
	if e.Type != EventCreated || !d.config.IsBackupFile(e.Path) {
		return nil
	}
	if d.config.stripBackupSuffix(e.Path) == "" {
		return nil
	}
	confidence := clampConfidence(0.7 + 0.05*d.gapFactor(events))
	return d.newOperation(OpBackupCreate, e.Path, events, confidence,
		fmt.Sprintf("Backup created: %s", filepath.Base(e.Path)))
}

// detectBatchUpdate recognizes a tool (formatter, code generator)
// touching many distinct files in one sweep. Requires at least
// BatchThreshold modified events on distinct paths sharing a directory
// or an extension. Confidence drops as name diversity grows.
func (d *Detector) detectBatchUpdate(events []Event) *Operation {
	paths := make(map[string]struct{})
	for _, e := range events {
		if e.Type != EventModified {
			return nil
		}
		paths[e.Path] = struct{}{}
	}
	if len(paths) < d.config.BatchThreshold || len(paths) != len(events) {
		return nil
	}

	dirs := make(map[string]struct{})
	exts := make(map[string]struct{})
	for path := range paths {
		dirs[filepath.Dir(path)] = struct{}{}
		exts[filepath.Ext(path)] = struct{}{}
	}
	if len(dirs) > 1 && len(exts) > 1 {
		return nil
	}

	primary := filepath.Dir(events[0].Path)
	if len(dirs) > 1 {
		primary = commonAncestor(dirs)
	}
	diversity := float64(len(exts)-1) / float64(len(paths))
	confidence := clampConfidence(0.75 + 0.15*(1.0-diversity) + 0.05*d.gapFactor(events))
	return d.newOperation(OpBatchUpdate, primary, events, confidence,
		fmt.Sprintf("Batch update of %d files in %s", len(paths), primary))
}

// detectDirectoryOperation is the fallback for two or more correlated
// events under a common parent directory that matched nothing stronger.
func (d *Detector) detectDirectoryOperation(events []Event) *Operation {
	if len(events) < 2 {
		return nil
	}
	parent := commonParent(events)
	if parent == "" {
		return nil
	}

	sameType := true
	for _, e := range events[1:] {
		if e.Type != events[0].Type {
			sameType = false
			break
		}
	}
	typeBonus := 0.0
	if sameType {
		typeBonus = 0.1
	}
	confidence := clampConfidence(0.55 + typeBonus + 0.05*d.gapFactor(events))
	return d.newOperation(OpDirectoryOperation, parent, events, confidence,
		fmt.Sprintf("Directory operation: %d events in %s", len(events), parent))
}

// newUnknownOperation wraps a single uncorrelated event. Emitted only
// when the caller asks for unmatched events.
func (d *Detector) newUnknownOperation(events []Event) *Operation {
	primary := d.config.FindRealFile(events)
	if primary == "" {
		primary = events[0].Path
	}
	return d.newOperation(OpUnknown, primary, events, 0.3,
		fmt.Sprintf("Uncorrelated %s event on %s", events[0].Type, filepath.Base(primary)))
}

// commonParent returns the directory shared by every event path, or ""
// when the paths disagree.
func commonParent(events []Event) string {
	parent := ""
	for _, e := range events {
		dir := filepath.Dir(e.Path)
		if parent == "" {
			parent = dir
			continue
		}
		if dir != parent {
			return ""
		}
	}
	return parent
}

// commonAncestor returns the deepest directory containing every entry,
// or "." when the paths share no prefix.
func commonAncestor(dirs map[string]struct{}) string {
	var ancestor []string
	first := true
	for dir := range dirs {
		parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))
		if first {
			ancestor = parts
			first = false
			continue
		}
		n := min(len(ancestor), len(parts))
		i := 0
		for i < n && ancestor[i] == parts[i] {
			i++
		}
		ancestor = ancestor[:i]
	}
	if len(ancestor) == 0 {
		return "."
	}
	joined := filepath.Join(ancestor...)
	if ancestor[0] == "" {
		// Absolute paths split into a leading empty segment.
		joined = string(filepath.Separator) + joined
	}
	if joined == string(filepath.Separator) || joined == "" {
		return string(filepath.Separator)
	}
	return joined
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 0.99 {
		return 0.99
	}
	return v
}
