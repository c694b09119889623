package operations

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Regexes for recovering the real file name hidden inside editor temp
// names. Ordered most-specific first.
var (
	// VSCode: ".name.ext.tmp.84" or "name.ext.tmp.84"
	vscodeTempRe = regexp.MustCompile(`^\.?(.+)\.tmp\.[^.]+$`)
	// vim swap: ".name.ext.swp" / ".swo" / ".swx"
	vimSwapRe = regexp.MustCompile(`^\.(.+)\.(swp|swo|swx)$`)
	// emacs autosave: "#name.ext#"
	emacsAutosaveRe = regexp.MustCompile(`^#(.+)#$`)
)

// IsTempFile reports whether the path looks like an editor temp file,
// using the default temp pattern set.
func IsTempFile(path string) bool {
	return matchesAny(path, defaultTempPatterns)
}

// IsBackupFile reports whether the path looks like a backup copy,
// using the default backup suffix set.
func IsBackupFile(path string) bool {
	return hasBackupSuffix(path, defaultBackupSuffixes)
}

// IsTempFile reports whether the path matches the configured temp patterns.
func (c *Config) IsTempFile(path string) bool {
	return matchesAny(path, c.TempPatterns)
}

// IsBackupFile reports whether the path carries a configured backup suffix.
func (c *Config) IsBackupFile(path string) bool {
	return hasBackupSuffix(path, c.BackupSuffixes)
}

func matchesAny(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func hasBackupSuffix(path string, suffixes []string) bool {
	base := filepath.Base(path)
	for _, suffix := range suffixes {
		if strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
			return true
		}
	}
	return false
}

// ExtractBaseName recovers the real file name hidden inside a temp file
// name, e.g. ".orchestrator.py.tmp.84" yields "orchestrator.py".
// Returns "" when the name matches no known temp convention.
func ExtractBaseName(path string) string {
	base := filepath.Base(path)

	if m := vscodeTempRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	if m := vimSwapRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	if m := emacsAutosaveRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	if stripped, ok := strings.CutSuffix(base, "~"); ok && stripped != "" {
		return stripped
	}
	for _, ext := range []string{".tmp", ".temp"} {
		if stripped, ok := strings.CutSuffix(base, ext); ok && stripped != "" {
			return stripped
		}
	}
	return ""
}

// ExtractOriginalPath maps a temp-styled path to the path of the real
// file it shadows, keeping the directory. Returns "" when no base name
// can be recovered.
func ExtractOriginalPath(path string) string {
	base := ExtractBaseName(path)
	if base == "" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." && !strings.ContainsRune(path, filepath.Separator) {
		return base
	}
	return filepath.Join(dir, base)
}

// stripBackupSuffix returns the original path a backup copy belongs to,
// or "" when the path carries no known backup suffix.
func (c *Config) stripBackupSuffix(path string) string {
	base := filepath.Base(path)
	for _, suffix := range c.BackupSuffixes {
		if stripped, ok := strings.CutSuffix(base, suffix); ok && stripped != "" {
			dir := filepath.Dir(path)
			if dir == "." && !strings.ContainsRune(path, filepath.Separator) {
				return stripped
			}
			return filepath.Join(dir, stripped)
		}
	}
	return ""
}

// FindRealFile locates the non-temp file a group of events is really
// about. It prefers the most recent real path; when every path is
// temp-styled it falls back to recovering a base name from the oldest
// temp file. Returns "" when nothing can be recovered.
func (c *Config) FindRealFile(events []Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Type == EventMoved && e.DestPath != "" && !c.IsTempFile(e.DestPath) {
			return e.DestPath
		}
		if !c.IsTempFile(e.Path) && !c.IsBackupFile(e.Path) {
			return e.Path
		}
	}
	for _, e := range events {
		if original := ExtractOriginalPath(e.Path); original != "" {
			return original
		}
	}
	return ""
}
