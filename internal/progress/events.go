// Package progress carries scan lifecycle events from the engine to
// whoever is watching, typically a verbose terminal.
package progress

import "time"

type EventType string

const (
	EventScanStarted  EventType = "scan_started"
	EventScanFinished EventType = "scan_finished"
	EventFileScanned  EventType = "file_scanned"
	EventFileSkipped  EventType = "file_skipped"
	EventRuleError    EventType = "rule_error"
)

type Event struct {
	Type         EventType `json:"type"`
	At           time.Time `json:"at"`
	File         string    `json:"file,omitempty"`
	Rule         string    `json:"rule,omitempty"`
	Status       string    `json:"status,omitempty"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
	FileCount    int       `json:"file_count,omitempty"`
	FindingCount int       `json:"finding_count,omitempty"`
	DurationMS   int64     `json:"duration_ms,omitempty"`
}
