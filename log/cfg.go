package log

import (
	"fmt"
	"path/filepath"
)

// LogCfg configures the logging subsystem. It covers output destinations,
// file rotation, and the asynchronous write path used to keep logging off
// the datagram hot path.
type LogCfg struct {
	// LogPath is the target log file path for file-based logging.
	// Relative and absolute paths are supported; parent directories are
	// created automatically.
	LogPath string `mapstructure:"path" yaml:"path"`

	// LogLevel is the minimum level that will be emitted.
	LogLevel Level `mapstructure:"level" yaml:"level"`

	// FileSplitMB is the file rotation threshold in megabytes.
	FileSplitMB int `mapstructure:"splitMB" yaml:"splitMB"`

	// FileSplitHour is the hour of day (0-23) for time-based rotation.
	// Zero disables time-based rotation.
	FileSplitHour int `mapstructure:"splitHour" yaml:"splitHour"`

	// IsAsync enables asynchronous log writing so file I/O never blocks
	// the ingest loop.
	IsAsync bool `mapstructure:"isAsync" yaml:"isAsync"`

	// AsyncCacheSize bounds the number of buffered entries in async mode.
	// Default: 1024.
	AsyncCacheSize int `mapstructure:"asyncCacheSize" yaml:"asyncCacheSize"`

	// AsyncWriteMillSec is the async batch write interval in milliseconds.
	// Default: 200ms.
	AsyncWriteMillSec int `mapstructure:"asyncWriteMillSec" yaml:"asyncWriteMillSec"`

	// CallerSkip is the number of extra stack frames to skip when
	// resolving caller information. Useful for wrapper layers.
	CallerSkip int `mapstructure:"callerSkip" yaml:"callerSkip"`

	// FileAppender enables file-based output.
	FileAppender bool `mapstructure:"fileAppender" yaml:"fileAppender"`

	// ConsoleAppender enables stdout output. Convenient for development
	// and containerized deployments.
	ConsoleAppender bool `mapstructure:"consoleAppender" yaml:"consoleAppender"`

	// EnabledCallerInfo attaches file:line caller info to each entry.
	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo" yaml:"enabledCallerInfo"`
}

// Validate checks the configuration for correctness and consistency.
func (cfg *LogCfg) Validate() error {
	if cfg.LogLevel < TraceLevel || cfg.LogLevel > FatalLevel {
		return fmt.Errorf("invalid log level: %d, must be between %d (Trace) and %d (Fatal)",
			cfg.LogLevel, TraceLevel, FatalLevel)
	}

	if cfg.FileSplitMB < 1 || cfg.FileSplitMB > 1024 {
		return fmt.Errorf("file split size must be between 1MB and 1024MB, got %dMB", cfg.FileSplitMB)
	}

	if cfg.FileSplitHour < 0 || cfg.FileSplitHour > 23 {
		return fmt.Errorf("file split hour must be between 0 and 23, got %d", cfg.FileSplitHour)
	}

	if cfg.IsAsync && cfg.AsyncCacheSize < 1 {
		return fmt.Errorf("async cache size must be at least 1 when async mode is enabled, got %d", cfg.AsyncCacheSize)
	}

	if cfg.IsAsync && cfg.AsyncWriteMillSec < 10 {
		return fmt.Errorf("async write interval must be at least 10ms, got %dms", cfg.AsyncWriteMillSec)
	}

	if cfg.CallerSkip < 0 {
		return fmt.Errorf("caller skip must be non-negative, got %d", cfg.CallerSkip)
	}

	if cfg.FileAppender && cfg.LogPath == "" {
		return fmt.Errorf("log path cannot be empty when file appender is enabled")
	}

	if cfg.FileAppender && cfg.LogPath != "" {
		cfg.LogPath = filepath.Clean(cfg.LogPath)
	}

	if !cfg.FileAppender && !cfg.ConsoleAppender {
		return fmt.Errorf("at least one appender (file or console) must be enabled")
	}

	return nil
}

var _defaultCfg = &LogCfg{
	LogPath:           "./shredscan.log",
	LogLevel:          DebugLevel,
	FileSplitMB:       50,
	FileSplitHour:     0,
	IsAsync:           true,
	CallerSkip:        1,
	FileAppender:      true,
	ConsoleAppender:   true,
	EnabledCallerInfo: true,
}

func getDefaultCfg() *LogCfg {
	return _defaultCfg
}
