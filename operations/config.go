package operations

import (
	"time"

	"github.com/simonhull/fileops/internal/validation"
)

// Default configuration values.
const (
	DefaultTimeWindow     = 500 * time.Millisecond
	DefaultBatchThreshold = 3
)

// defaultTempPatterns match the base name of editor temp files.
// VSCode writes ".name.ext.tmp.N", vim keeps ".name.swp" swap files,
// emacs uses "#name#" autosaves.
var defaultTempPatterns = []string{
	"*.tmp",
	"*.tmp.*",
	"*.temp",
	"*~",
	".*.swp",
	".*.swo",
	".*.swx",
	"#*#",
	".#*",
}

// defaultBackupSuffixes mark a path as a backup copy of the file that
// remains after stripping the suffix.
var defaultBackupSuffixes = []string{
	".bak",
	".backup",
	".orig",
	".old",
	"~",
}

// Config controls grouping and classification behavior.
type Config struct {
	// TimeWindow is the maximum span within which related events are
	// considered part of the same operation. Zero selects the default.
	TimeWindow time.Duration `validate:"gte=0"`

	// MinConfidence drops detected operations scoring below it.
	// The default of 0 performs no filtering.
	MinConfidence float64 `validate:"gte=0,lte=1"`

	// BatchThreshold is the minimum number of modified files required to
	// classify a group as a batch update. Zero selects the default.
	BatchThreshold int `validate:"gte=0"`

	// TempPatterns are glob patterns (matched against the base name)
	// identifying temp-styled paths. Nil selects the defaults.
	TempPatterns []string

	// BackupSuffixes identify backup-styled paths by suffix.
	// Nil selects the defaults.
	BackupSuffixes []string
}

// setDefaults applies default values to unset options.
func (c *Config) setDefaults() {
	if c.TimeWindow == 0 {
		c.TimeWindow = DefaultTimeWindow
	}
	if c.BatchThreshold == 0 {
		c.BatchThreshold = DefaultBatchThreshold
	}
	if c.TempPatterns == nil {
		c.TempPatterns = defaultTempPatterns
	}
	if c.BackupSuffixes == nil {
		c.BackupSuffixes = defaultBackupSuffixes
	}
}

// validate rejects invalid option values. Called after setDefaults, so
// zero values have already been replaced.
func (c *Config) validate() error {
	if err := validation.New().Validate(c); err != nil {
		return err
	}
	return nil
}
