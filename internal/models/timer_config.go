package models

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a TimerConfig cannot be run.
var ErrInvalidConfig = errors.New("invalid timer configuration")

// TimerConfig describes one structured interval workout: Sets × Reps of
// work intervals separated by rep rests, with set rests between sets.
// All durations are whole seconds.
type TimerConfig struct {
	Sets     int `json:"sets"`
	Reps     int `json:"reps"`
	WorkTime int `json:"work_time"`
	RepRest  int `json:"rep_rest"`
	SetRest  int `json:"set_rest"`

	// Weight is the added load in canonical pounds.
	Weight Optional[float64] `json:"weight_lbs"`
	// Edge is the grip depth in millimetres.
	Edge Optional[float64] `json:"edge_mm"`
}

// DefaultTimerConfig returns the configuration a fresh timer starts with.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		Sets:     3,
		Reps:     7,
		WorkTime: 7,
		RepRest:  3,
		SetRest:  60,
	}
}

// Validate reports why the configuration cannot be started, if at all.
// The returned error wraps ErrInvalidConfig and carries a user-facing reason.
func (c TimerConfig) Validate() error {
	switch {
	case c.Sets < 1:
		return fmt.Errorf("%w: sets must be at least 1", ErrInvalidConfig)
	case c.Reps < 1:
		return fmt.Errorf("%w: reps must be at least 1", ErrInvalidConfig)
	case c.WorkTime < 1:
		return fmt.Errorf("%w: work time must be at least 1 second", ErrInvalidConfig)
	case c.RepRest < 0:
		return fmt.Errorf("%w: rep rest cannot be negative", ErrInvalidConfig)
	case c.SetRest < 0:
		return fmt.Errorf("%w: set rest cannot be negative", ErrInvalidConfig)
	}
	if w, ok := c.Weight.Get(); ok && w < 0 {
		return fmt.Errorf("%w: weight cannot be negative", ErrInvalidConfig)
	}
	if e, ok := c.Edge.Get(); ok && e <= 0 {
		return fmt.Errorf("%w: edge must be positive", ErrInvalidConfig)
	}
	return nil
}

// TotalSeconds returns the wall-clock length of a run driven only by ticks:
// S*R*W + S*(R-1)*Rr + (S-1)*Sr. It is zero for configurations that fail Validate.
func (c TimerConfig) TotalSeconds() int {
	if c.Validate() != nil {
		return 0
	}
	return c.Sets*c.Reps*c.WorkTime + c.Sets*(c.Reps-1)*c.RepRest + (c.Sets-1)*c.SetRest
}

// HangSeconds returns the total time under load: WorkTime × Sets × Reps.
func (c TimerConfig) HangSeconds() int {
	return c.WorkTime * c.Sets * c.Reps
}

// ConfigPatch is a partial TimerConfig. Nil fields are left unchanged.
// ClearWeight and ClearEdge remove the optional parameters.
type ConfigPatch struct {
	Sets        *int     `json:"sets,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	WorkTime    *int     `json:"work_time,omitempty"`
	RepRest     *int     `json:"rep_rest,omitempty"`
	SetRest     *int     `json:"set_rest,omitempty"`
	Weight      *float64 `json:"weight_lbs,omitempty"`
	Edge        *float64 `json:"edge_mm,omitempty"`
	ClearWeight bool     `json:"clear_weight,omitempty"`
	ClearEdge   bool     `json:"clear_edge,omitempty"`
}

// Apply returns c with every non-nil field of p merged in.
func (p ConfigPatch) Apply(c TimerConfig) TimerConfig {
	if p.Sets != nil {
		c.Sets = *p.Sets
	}
	if p.Reps != nil {
		c.Reps = *p.Reps
	}
	if p.WorkTime != nil {
		c.WorkTime = *p.WorkTime
	}
	if p.RepRest != nil {
		c.RepRest = *p.RepRest
	}
	if p.SetRest != nil {
		c.SetRest = *p.SetRest
	}
	switch {
	case p.ClearWeight:
		c.Weight = None[float64]()
	case p.Weight != nil:
		c.Weight = Some(*p.Weight)
	}
	switch {
	case p.ClearEdge:
		c.Edge = None[float64]()
	case p.Edge != nil:
		c.Edge = Some(*p.Edge)
	}
	return c
}
