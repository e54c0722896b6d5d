package runner

import (
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/timer"
)

// EventType identifies a Runner notification.
type EventType string

const (
	EventPhaseChange  EventType = "phase_change"
	EventTick         EventType = "tick"
	EventCompleted    EventType = "completed"
	EventRecorded     EventType = "recorded"
	EventRecordFailed EventType = "record_failed"
)

// Event is delivered to subscribers. Session is set for completed, recorded
// and record_failed events; Err only for record_failed.
type Event struct {
	Type    EventType
	State   timer.Snapshot
	Session *models.Session
	Err     error
	At      time.Time
}
