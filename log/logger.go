package log

// Logger is the interface for a logging component, providing structured
// log events at the standard severity levels.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Fatal() *LogEvent
	IgnoreCheckLevel() bool
	GetAppender() []LogAppender
	AddAppender(appender LogAppender)
	OnEventEnd(e *LogEvent)
}

var _defaultLogger *StreamLogger

func init() {
	// Initialize with default settings.
	// Callers can invoke Initialize() later with a specific configuration.
	_defaultLogger = NewLogger(getDefaultCfg())
}

// Initialize configures the default logger with the given configuration.
// If cfg is nil, the default configuration is used. Call once at startup.
func Initialize(cfg *LogCfg) error {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	SetDefaultLogger(NewLogger(cfg))
	return nil
}

// AddAppender adds an appender to the default logger.
func AddAppender(appender LogAppender) {
	_defaultLogger.AddAppender(appender)
}

// Refresh flushes all appenders of the default logger.
func Refresh() {
	_defaultLogger.Refresh()
}

// Close flushes and closes the default logger and its appenders.
// Call at shutdown to ensure all logs are written.
func Close() {
	_defaultLogger.Close()
}

// SetDefaultLogger replaces the default logger with a custom instance.
func SetDefaultLogger(logger *StreamLogger) {
	_defaultLogger = logger
}

// Debug creates a debug-level event on the default logger.
func Debug() *LogEvent {
	return _defaultLogger.Debug()
}

// Info creates an info-level event on the default logger.
func Info() *LogEvent {
	return _defaultLogger.Info()
}

// Warn creates a warn-level event on the default logger.
func Warn() *LogEvent {
	return _defaultLogger.Warn()
}

// Error creates an error-level event on the default logger.
func Error() *LogEvent {
	return _defaultLogger.Error()
}

// Fatal creates a fatal-level event on the default logger.
func Fatal() *LogEvent {
	return _defaultLogger.Fatal()
}
