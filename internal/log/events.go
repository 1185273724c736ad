package log

import (
	"maps"
	"time"

	"imagebot/internal/core"
	"imagebot/internal/util"
)

// EventLogger implements core.EventLogger. Every event is written to the
// application log and then forwarded to the registered sinks in order.
type EventLogger struct {
	logger core.Logger
	sinks  []core.EventSink
}

// NewEventLogger creates an event logger writing to logger and forwarding to sinks.
func NewEventLogger(logger core.Logger, sinks ...core.EventSink) *EventLogger {
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &EventLogger{logger: logger, sinks: sinks}
}

// LogBotEvent records a completed bot operation.
func (e *EventLogger) LogBotEvent(action, status, details string) {
	event := core.RefreshEvent{
		ID:        util.GenerateEventID(),
		Timestamp: time.Now(),
		Action:    action,
		Status:    status,
		Details:   details,
	}

	e.logger.Info("Bot event %s [%s]: %s", action, status, details)
	e.dispatch(event)
}

// LogError records a failure together with its context.
func (e *EventLogger) LogError(errorType, errorMessage, traceback string, context map[string]any) {
	event := core.RefreshEvent{
		ID:           util.GenerateEventID(),
		Timestamp:    time.Now(),
		Status:       core.StatusError,
		ErrorType:    errorType,
		ErrorMessage: errorMessage,
		Traceback:    traceback,
		Context:      maps.Clone(context),
	}

	e.logger.Error("Bot error %s: %s (context: %v)", errorType, errorMessage, context)
	if traceback != "" {
		e.logger.Debug("Traceback for %s:\n%s", errorType, traceback)
	}
	e.dispatch(event)
}

func (e *EventLogger) dispatch(event core.RefreshEvent) {
	for _, sink := range e.sinks {
		e.forward(sink, event.Clone())
	}
}

func (e *EventLogger) forward(sink core.EventSink, event core.RefreshEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Event sink %T panicked on event %s: %v", sink, event.ID, r)
		}
	}()
	sink.HandleRefreshEvent(event)
}
