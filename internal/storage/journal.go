// Package storage defines the event journal the player persists bus events
// to. The postgres and sqlite packages implement it.
package storage

import (
	"context"
	"time"
)

const (
	DefaultQueryLimit = 200
	MaxQueryLimit     = 10000
)

// EventRow is one journaled event.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	SceneID   string                 `json:"scene_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// Journal appends bus events and reads them back newest first. It satisfies
// events.Sink.
type Journal interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
	Query(ctx context.Context, limit int) ([]EventRow, error)
	Close() error
}

// ClampLimit maps a requested row limit into [1, MaxQueryLimit], with
// DefaultQueryLimit for non-positive values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
