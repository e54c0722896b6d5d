package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CustomPresetName is recorded for runs that were not started from a saved preset.
const CustomPresetName = "Custom"

// DateLayout is the calendar key format used for history filters.
const DateLayout = "2006-01-02"

// Well-known setting keys.
const (
	SettingWeightUnit         = "weight_unit"
	SettingOnboardingComplete = "onboarding_complete"
)

// Preset is a named, stored TimerConfig. Presets are never updated in place.
type Preset struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Config    TimerConfig `json:"config"`
	CreatedAt time.Time   `json:"created_at"`
}

// Session is the immutable log record of one completed timer run.
type Session struct {
	ID              int64       `json:"id"`
	RunID           uuid.UUID   `json:"run_id"`
	PresetName      string      `json:"preset_name"`
	Config          TimerConfig `json:"config"`
	DurationSeconds int         `json:"duration_seconds"`
	CompletedAt     time.Time   `json:"completed_at"`
}

// SessionFilter narrows ListSessions. Zero values match everything.
type SessionFilter struct {
	PresetName string
	// Date is a YYYY-MM-DD key evaluated in Location.
	Date     string
	Location *time.Location
	Limit    int
}

// DayRange returns the [start, end) instant range covered by f.Date.
// ok is false when no date filter is set.
func (f SessionFilter) DayRange() (start, end time.Time, ok bool, err error) {
	return dayRange(f.Date, f.Location)
}

func dayRange(date string, loc *time.Location) (start, end time.Time, ok bool, err error) {
	if date == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if loc == nil {
		loc = time.Local
	}
	start, err = time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), true, nil
}
