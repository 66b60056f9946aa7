// Package log implements the structured JSON logger used across shredscan.
// It provides a fluent field API (log.Info().Uint32("msg_id", id).Msg(...)),
// console and file appenders with rotation, and pooled event objects so the
// datagram hot path logs without allocating.
package log

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// StreamLogger is a thread-safe logger with configurable appenders and
// level filtering. It is built for ingest daemons where the logging path
// competes with packet processing for CPU: the filtered-out path is a
// single atomic load, and event objects are pooled.
//
// Example usage:
//
//	logger := NewLogger(&LogCfg{
//	    LogLevel:        InfoLevel,
//	    ConsoleAppender: true,
//	    FileAppender:    true,
//	    LogPath:         "/var/log/shredscan.log",
//	})
//	logger.Info().Str("listen", addr).Msg("stream ingest started")
type StreamLogger struct {
	appenders         []LogAppender // Appenders responsible for output
	minLevel          atomic.Int32  // Minimum level that will be processed
	callerSkip        int           // Extra stack frames to skip for caller info
	eventPool         *sync.Pool    // Pool of LogEvent instances
	callerCache       sync.Map      // pc -> *callerInfo cache
	enabledCallerInfo bool          // Whether caller info is captured

	configMutex   sync.RWMutex
	currentConfig *LogCfg
}

// NewLogger creates a StreamLogger from cfg, falling back to the default
// configuration when cfg is nil. Appenders are attached according to the
// FileAppender and ConsoleAppender flags.
func NewLogger(cfg *LogCfg) *StreamLogger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}

	logger := &StreamLogger{
		callerSkip:        cfg.CallerSkip,
		enabledCallerInfo: cfg.EnabledCallerInfo,
		currentConfig:     cfg,
	}
	logger.minLevel.Store(int32(cfg.LogLevel))

	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg, logger))
	}

	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	return logger
}

// GetCurrentConfig returns the current logger configuration.
func (x *StreamLogger) GetCurrentConfig() *LogCfg {
	x.configMutex.RLock()
	defer x.configMutex.RUnlock()
	return x.currentConfig
}

// SetLevel changes the minimum level at runtime. Safe for concurrent use.
func (x *StreamLogger) SetLevel(level Level) {
	x.minLevel.Store(int32(level))
}

// checkLevel reports whether the given level should be logged.
func (x *StreamLogger) checkLevel(level Level) bool {
	return Level(x.minLevel.Load()) <= level
}

// AddAppender registers an additional output destination. Multiple
// appenders receive every entry.
func (x *StreamLogger) AddAppender(appender LogAppender) {
	x.appenders = append(x.appenders, appender)
}

// GetAppender returns the appenders currently registered with the logger.
func (x *StreamLogger) GetAppender() []LogAppender {
	return x.appenders
}

// Refresh flushes all registered appenders. Useful before collecting
// diagnostics or when rotation is forced externally.
func (x *StreamLogger) Refresh() {
	for _, appender := range x.appenders {
		appender.Refresh()
	}
}

// Close closes all registered appenders, flushing any buffered logs.
func (x *StreamLogger) Close() {
	for _, appender := range x.appenders {
		appender.Close()
	}
}

// IgnoreCheckLevel reports whether level filtering is bypassed. Always
// false for StreamLogger.
func (x *StreamLogger) IgnoreCheckLevel() bool {
	return false
}

// newEvent takes a LogEvent from the pool and resets it for use.
func (x *StreamLogger) newEvent() *LogEvent {
	e := x.eventPool.Get().(*LogEvent)
	e.Reset()
	return e
}

// OnEventEnd routes a finished event to every appender and returns it to
// the pool. Fatal events panic after the write so the failure is never
// silently swallowed.
func (x *StreamLogger) OnEventEnd(e *LogEvent) {
	for _, appender := range x.appenders {
		appender.Write(e.buf.Bytes())
	}

	if e.level == FatalLevel {
		panic("fatal log event")
	}

	x.eventPool.Put(e)
}

// Debug creates a new debug-level log event, or nil if filtered.
func (x *StreamLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates a new info-level log event, or nil if filtered.
func (x *StreamLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a new warn-level log event, or nil if filtered.
func (x *StreamLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates a new error-level log event, or nil if filtered.
func (x *StreamLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a new fatal-level log event. The application panics once
// the event is written.
func (x *StreamLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}

// getCallerInfo resolves the logging call site, caching resolved program
// counters to avoid repeated symbol lookups.
func (x *StreamLogger) getCallerInfo() *callerInfo {
	pc, file, line, ok := runtime.Caller(3 + x.callerSkip)
	if !ok {
		return _UnknownCallerInfo
	}

	if cached, found := x.callerCache.Load(pc); found {
		return cached.(*callerInfo)
	}

	funcName := runtime.FuncForPC(pc).Name()
	var function string
	if dotIdx := strings.LastIndexByte(funcName, '.'); dotIdx != -1 {
		function = funcName[dotIdx+1:]
	} else {
		function = funcName
	}

	// Trim the path to pkg/file.go for readability
	if len(file) > 0 {
		lastSlash := strings.LastIndexByte(file, '/')
		if lastSlash > 0 {
			secondLastSlash := strings.LastIndexByte(file[:lastSlash], '/')
			if secondLastSlash >= 0 {
				file = file[secondLastSlash+1:]
			}
		}
	}

	c := newCallerInfo(file, function, line)

	x.callerCache.Store(pc, c)

	return c
}

// log prepares a new event with the common fields (timestamp, level, and
// optionally caller info). Returns nil when the level is filtered out.
func (x *StreamLogger) log(level Level) *LogEvent {
	if !x.IgnoreCheckLevel() && !x.checkLevel(level) {
		return nil
	}

	e := x.newEvent()
	e.level = level

	t := time.Now()
	e.Time("time", &t)
	e.Str("level", level.String())

	if x.enabledCallerInfo {
		e.Str("caller", x.getCallerInfo().String())
	}

	return e
}
