package entities

import (
	"fmt"
	"runtime"
)

// DefaultMaxEntrySize caps how much of a single archive entry is read into memory
const DefaultMaxEntrySize int64 = 512 << 20

// ScanConfig holds the tunables of the scan pipeline
type ScanConfig struct {
	TargetFamily    string // textual CPU family marker, e.g. "arm"
	VersionKeys     []string
	DisplayNameKeys []string
	MaxEntrySize    int64
	Parallel        int
	Log             LogConfig
}

// LogConfig configures the logging adapter
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	File       string // optional rotating log file
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultScanConfig returns the configuration used when no file is given
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		TargetFamily:    "arm",
		VersionKeys:     []string{"CFBundleShortVersionString", "CFBundleVersion"},
		DisplayNameKeys: []string{"CFBundleDisplayName", "CFBundleName", "CFBundleExecutable"},
		MaxEntrySize:    DefaultMaxEntrySize,
		Parallel:        runtime.NumCPU(),
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     14,
		},
	}
}

// Validate checks the configuration for unusable values
func (c ScanConfig) Validate() error {
	if c.TargetFamily == "" {
		return fmt.Errorf("target_family must not be empty")
	}
	if len(c.VersionKeys) == 0 {
		return fmt.Errorf("version_keys must list at least one key")
	}
	if len(c.DisplayNameKeys) == 0 {
		return fmt.Errorf("display_name_keys must list at least one key")
	}
	if c.MaxEntrySize <= 0 {
		return fmt.Errorf("max_entry_size must be positive, got %d", c.MaxEntrySize)
	}
	if c.Parallel <= 0 {
		return fmt.Errorf("parallel must be positive, got %d", c.Parallel)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
