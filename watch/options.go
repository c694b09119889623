package watch

import (
	"path/filepath"
	"strings"
)

// Options configures the filesystem bridge.
//
// Note that temp and backup files are deliberately NOT ignored by
// default: they are the raw signal the operation detector correlates
// on. Only OS noise files are filtered out.
type Options struct {
	// IgnorePatterns are glob patterns matched against the base name.
	IgnorePatterns []string

	// IgnoreHidden drops events under dot-prefixed path segments.
	// Off by default: editors hide their temp files behind dots.
	IgnoreHidden bool

	// Buffer is the capacity of the outgoing event channel.
	Buffer int
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Buffer == 0 {
		o.Buffer = 100
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"Thumbs.db",
		}
	}
}

// shouldIgnore checks if a path matches ignore patterns.
func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden {
		parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
		for _, part := range parts {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}

	return false
}
