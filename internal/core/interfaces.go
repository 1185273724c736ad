package core

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// EventLogger receives refresh outcomes. LogBotEvent reports a completed
// operation, LogError a failure; traceback may be empty.
type EventLogger interface {
	LogBotEvent(action, status, details string)
	LogError(errorType, errorMessage, traceback string, context map[string]any)
}

// EventSink consumes refresh events forwarded by the event logger.
type EventSink interface {
	HandleRefreshEvent(event RefreshEvent)
}

// StorageInterface storage interface
type StorageInterface interface {
	SaveStats(stats *RefreshStats) error
	LoadStats() (*RefreshStats, error)
	Close() error
}

// NopLogger empty logger implementation
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopEventLogger discards all events.
type NopEventLogger struct{}

func (*NopEventLogger) LogBotEvent(action, status, details string) {}
func (*NopEventLogger) LogError(errorType, errorMessage, traceback string, context map[string]any) {
}
