package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/google/uuid"
)

// ErrNotIdle is returned by operations that are only valid before a run starts.
var ErrNotIdle = errors.New("timer is not idle")

// RunState is the mutable progress of a run.
type RunState struct {
	Phase               Phase `json:"phase"`
	CurrentSet          int   `json:"current_set"`
	CurrentRep          int   `json:"current_rep"`
	SecondsRemaining    int   `json:"seconds_remaining"`
	IsRunning           bool  `json:"is_running"`
	TotalElapsedSeconds int   `json:"total_elapsed_seconds"`
}

func idleState() RunState {
	return RunState{Phase: PhaseIdle}
}

// Snapshot is a copy of everything observable about an Engine.
type Snapshot struct {
	RunState
	RunID      uuid.UUID          `json:"run_id"`
	PresetName string             `json:"preset_name"`
	Config     models.TimerConfig `json:"config"`
}

// Step describes the effect of one Tick or Skip.
type Step struct {
	From         Phase
	To           Phase
	Transitioned bool
	// Completion is set only on the call that moved the run into PhaseCompleted.
	Completion *Completion
}

// Completion is the one-time token emitted when a run finishes.
type Completion struct {
	RunID               uuid.UUID
	PresetName          string
	Config              models.TimerConfig
	TotalElapsedSeconds int
	CompletedAt         time.Time
}

// Session converts the completion into the record that gets stored.
func (c Completion) Session() models.Session {
	name := c.PresetName
	if name == "" {
		name = models.CustomPresetName
	}
	return models.Session{
		RunID:           c.RunID,
		PresetName:      name,
		Config:          c.Config,
		DurationSeconds: c.TotalElapsedSeconds,
		CompletedAt:     c.CompletedAt,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the initial configuration.
func WithConfig(cfg models.TimerConfig) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithPreset sets the initial configuration and preset name.
func WithPreset(name string, cfg models.TimerConfig) Option {
	return func(e *Engine) {
		e.presetName = name
		e.config = cfg
	}
}

// WithClock overrides the time source used to stamp completions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine is the interval timer state machine. It performs no I/O and starts
// no goroutines; the host delivers one Tick per elapsed second while running.
// An Engine is not safe for concurrent use.
type Engine struct {
	config     models.TimerConfig
	presetName string
	state      RunState
	runID      uuid.UUID
	now        func() time.Time
}

// New creates an idle Engine with the default configuration unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		config: models.DefaultTimerConfig(),
		state:  idleState(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a copy of the run state.
func (e *Engine) State() RunState {
	return e.state
}

// Config returns the current configuration.
func (e *Engine) Config() models.TimerConfig {
	return e.config
}

// PresetName returns the loaded preset name, empty for a custom configuration.
func (e *Engine) PresetName() string {
	return e.presetName
}

// Snapshot returns the full observable state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		RunState:   e.state,
		RunID:      e.runID,
		PresetName: e.presetName,
		Config:     e.config,
	}
}

// Configure merges a partial configuration. It is rejected with ErrNotIdle
// once a run has started.
func (e *Engine) Configure(patch models.ConfigPatch) error {
	if e.state.Phase != PhaseIdle {
		return ErrNotIdle
	}
	e.config = patch.Apply(e.config)
	return nil
}

// SetPresetName labels the current configuration. Only valid while idle.
func (e *Engine) SetPresetName(name string) error {
	if e.state.Phase != PhaseIdle {
		return ErrNotIdle
	}
	e.presetName = name
	return nil
}

// LoadPreset replaces the configuration and preset name and returns the
// engine to idle, abandoning any run in progress.
func (e *Engine) LoadPreset(name string, cfg models.TimerConfig) {
	e.presetName = name
	e.config = cfg
	e.reset()
}

// Start begins a run from idle. Invalid configurations are rejected before
// any state changes.
func (e *Engine) Start() error {
	if e.state.Phase != PhaseIdle {
		return ErrNotIdle
	}
	if err := e.config.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	e.runID = uuid.New()
	e.state = RunState{
		Phase:            PhaseWork,
		CurrentSet:       1,
		CurrentRep:       1,
		SecondsRemaining: e.config.WorkTime,
		IsRunning:        true,
	}
	return nil
}

// Pause stops time from advancing. It reports whether anything changed.
func (e *Engine) Pause() bool {
	if !e.state.IsRunning {
		return false
	}
	e.state.IsRunning = false
	return true
}

// Resume lets time advance again. It is a no-op outside an active phase.
func (e *Engine) Resume() bool {
	if e.state.IsRunning || !e.state.Phase.Active() {
		return false
	}
	e.state.IsRunning = true
	return true
}

// Reset abandons any run and returns to idle. Configuration and preset
// name are kept.
func (e *Engine) Reset() {
	e.reset()
}

func (e *Engine) reset() {
	e.state = idleState()
	e.runID = uuid.Nil
}

// Tick advances the run by one second. It is a silent no-op while idle,
// completed or paused.
func (e *Engine) Tick() Step {
	step := Step{From: e.state.Phase, To: e.state.Phase}
	if !e.state.IsRunning || !e.state.Phase.Active() {
		return step
	}

	e.state.TotalElapsedSeconds++
	if e.state.SecondsRemaining > 1 {
		e.state.SecondsRemaining--
		return step
	}
	return e.transition(step)
}

// Skip ends the current phase immediately without counting the skipped
// seconds. It is a silent no-op while idle or completed.
func (e *Engine) Skip() Step {
	step := Step{From: e.state.Phase, To: e.state.Phase}
	if !e.state.Phase.Active() {
		return step
	}
	return e.transition(step)
}

func (e *Engine) transition(step Step) Step {
	next, remaining := Advance(Position{
		Phase: e.state.Phase,
		Set:   e.state.CurrentSet,
		Rep:   e.state.CurrentRep,
	}, e.config)

	e.state.Phase = next.Phase
	e.state.CurrentSet = next.Set
	e.state.CurrentRep = next.Rep
	e.state.SecondsRemaining = remaining

	step.To = next.Phase
	step.Transitioned = true

	if next.Phase == PhaseCompleted {
		e.state.IsRunning = false
		step.Completion = &Completion{
			RunID:               e.runID,
			PresetName:          e.presetName,
			Config:              e.config,
			TotalElapsedSeconds: e.state.TotalElapsedSeconds,
			CompletedAt:         e.now(),
		}
	}
	return step
}
