package core

import (
	"maps"
	"time"
)

// RefreshEvent is one outcome reported by the event logger: either a bot
// event (Status == StatusSuccess) or an error report.
type RefreshEvent struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Action       string         `json:"action,omitempty"`
	Status       string         `json:"status"`
	Details      string         `json:"details,omitempty"`
	ErrorType    string         `json:"error_type,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Traceback    string         `json:"traceback,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// IsError reports whether the event came from the error hook.
func (e RefreshEvent) IsError() bool {
	return e.Status == StatusError
}

// Clone returns a copy that does not share the context map.
func (e RefreshEvent) Clone() RefreshEvent {
	if e.Context != nil {
		e.Context = maps.Clone(e.Context)
	}
	return e
}

// RefreshStats holds aggregated refresh statistics for monitoring.
type RefreshStats struct {
	TotalRefreshes      int64          `json:"total_refreshes"`
	SuccessfulRefreshes int64          `json:"successful_refreshes"`
	FailedRefreshes     int64          `json:"failed_refreshes"`
	LastRefreshTime     time.Time      `json:"last_refresh_time"`
	History             []RefreshEvent `json:"history"`
}
