// Package runner hosts a timer.Engine: it delivers one tick per second from a
// single goroutine, serializes intents from any caller, records each
// completed run through a storage.SessionRecorder and publishes events.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/timer"
)

// ErrClosed is returned by intents sent after Close.
var ErrClosed = errors.New("runner is closed")

// Config contains runtime options for a Runner.
type Config struct {
	// Recorder stores completed runs. When nil, completions are only published.
	Recorder storage.SessionRecorder
	// TickInterval defaults to one second.
	TickInterval time.Duration
	// NewTicker defaults to NewClockTicker.
	NewTicker TickerFactory
	// SaveTimeout bounds each SaveSession call made from the tick loop.
	SaveTimeout time.Duration
	// Engine options applied to the owned engine.
	EngineOptions []timer.Option
}

// Runner owns one timer.Engine. All methods are safe for concurrent use.
type Runner struct {
	mu       sync.Mutex
	engine   *timer.Engine
	log      *slog.Logger
	recorder storage.SessionRecorder
	interval time.Duration
	newTick  TickerFactory
	timeout  time.Duration

	// generation is bumped whenever the ticker stops so a late tick from a
	// previous goroutine is discarded.
	generation uint64
	stopCh     chan struct{}
	wg         sync.WaitGroup

	pending []models.Session
	events  []chan Event
	closed  bool
}

// New creates a Runner with an idle engine.
func New(logger *slog.Logger, cfg Config) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewClockTicker
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	return &Runner{
		engine:   timer.New(cfg.EngineOptions...),
		log:      logger,
		recorder: cfg.Recorder,
		interval: cfg.TickInterval,
		newTick:  cfg.NewTicker,
		timeout:  cfg.SaveTimeout,
	}
}

// Subscribe registers a new observer channel. Events are dropped when the
// channel is full.
func (r *Runner) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(ch)
		return ch
	}
	r.events = append(r.events, ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (r *Runner) Unsubscribe(events <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ch := range r.events {
		if ch == events {
			r.events = append(r.events[:i], r.events[i+1:]...)
			close(ch)
			return
		}
	}
}

// Snapshot returns the engine's observable state.
func (r *Runner) Snapshot() timer.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

// Configure merges patch into the configuration while idle.
func (r *Runner) Configure(patch models.ConfigPatch) (timer.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.engine.Snapshot(), ErrClosed
	}
	err := r.engine.Configure(patch)
	return r.engine.Snapshot(), err
}

// SetPresetName labels the configuration while idle. An empty name records
// runs as custom.
func (r *Runner) SetPresetName(name string) (timer.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.engine.Snapshot(), ErrClosed
	}
	err := r.engine.SetPresetName(name)
	return r.engine.Snapshot(), err
}

// LoadPreset abandons any run and loads a named configuration.
func (r *Runner) LoadPreset(name string, cfg models.TimerConfig) (timer.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.engine.Snapshot(), ErrClosed
	}
	from := r.engine.State().Phase
	r.stopTickerLocked()
	r.engine.LoadPreset(name, cfg)
	r.emitPhaseLocked(from)
	return r.engine.Snapshot(), nil
}

// Start begins a run and starts ticking.
func (r *Runner) Start() (timer.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.engine.Snapshot(), ErrClosed
	}
	if err := r.engine.Start(); err != nil {
		return r.engine.Snapshot(), err
	}
	r.log.Info("timer started",
		"run_id", r.engine.Snapshot().RunID,
		"preset", r.engine.PresetName(),
		"total_seconds", r.engine.Config().TotalSeconds())
	r.startTickerLocked()
	r.emitPhaseLocked(timer.PhaseIdle)
	return r.engine.Snapshot(), nil
}

// Pause freezes the countdown.
func (r *Runner) Pause() timer.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine.Pause() {
		r.stopTickerLocked()
		r.emitLocked(EventPhaseChange, nil, nil)
	}
	return r.engine.Snapshot()
}

// Resume continues a paused run.
func (r *Runner) Resume() timer.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed && r.engine.Resume() {
		r.startTickerLocked()
		r.emitLocked(EventPhaseChange, nil, nil)
	}
	return r.engine.Snapshot()
}

// Reset abandons the run without recording it.
func (r *Runner) Reset() timer.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := r.engine.State().Phase
	r.stopTickerLocked()
	r.engine.Reset()
	r.emitPhaseLocked(from)
	return r.engine.Snapshot()
}

// Skip ends the current phase. If that completes the run, the session is
// recorded before Skip returns. Skip does nothing after Close.
func (r *Runner) Skip(ctx context.Context) timer.Snapshot {
	r.mu.Lock()
	if r.closed {
		snap := r.engine.Snapshot()
		r.mu.Unlock()
		return snap
	}
	step := r.engine.Skip()
	r.afterStepLocked(step)
	snap := r.engine.Snapshot()
	r.mu.Unlock()

	if step.Completion != nil {
		r.record(ctx, step.Completion.Session())
	}
	return snap
}

// Pending returns completed sessions whose save failed.
func (r *Runner) Pending() []models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Session(nil), r.pending...)
}

// RetryPending re-submits failed saves. It returns how many were stored.
func (r *Runner) RetryPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	queued := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(queued) == 0 {
		return 0, nil
	}
	if r.recorder == nil {
		r.requeue(queued...)
		return 0, errors.New("no session recorder configured")
	}

	var saved int
	var errs []error
	for i, s := range queued {
		if err := ctx.Err(); err != nil {
			r.requeue(queued[i:]...)
			errs = append(errs, err)
			break
		}
		stored, err := r.recorder.SaveSession(ctx, s)
		if err != nil {
			r.requeue(s)
			errs = append(errs, fmt.Errorf("run %s: %w", s.RunID, err))
			continue
		}
		saved++
		r.log.Info("pending session recorded", "id", stored.ID, "run_id", stored.RunID)
		r.mu.Lock()
		r.emitLocked(EventRecorded, &stored, nil)
		r.mu.Unlock()
	}
	return saved, errors.Join(errs...)
}

// Close stops the ticker, waits for in-flight recording and closes all
// subscriber channels. Pending sessions are logged and dropped.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.stopTickerLocked()
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	events := r.events
	r.events = nil
	if n := len(r.pending); n > 0 {
		r.log.Warn("discarding unsaved sessions", "count", n)
	}
	r.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (r *Runner) startTickerLocked() {
	if r.stopCh != nil {
		return
	}
	r.stopCh = make(chan struct{})
	gen := r.generation
	ticker := r.newTick(r.interval)
	r.wg.Add(1)
	go r.run(gen, ticker, r.stopCh)
}

func (r *Runner) stopTickerLocked() {
	if r.stopCh == nil {
		return
	}
	close(r.stopCh)
	r.stopCh = nil
	r.generation++
}

func (r *Runner) run(gen uint64, ticker Ticker, stop <-chan struct{}) {
	defer r.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if !r.tick(gen) {
				return
			}
		}
	}
}

// tick applies one second. It reports false when the tick belonged to a
// stopped ticker.
func (r *Runner) tick(gen uint64) bool {
	r.mu.Lock()
	if gen != r.generation || r.stopCh == nil {
		r.mu.Unlock()
		return false
	}
	step := r.engine.Tick()
	if !step.Transitioned {
		r.emitLocked(EventTick, nil, nil)
	}
	r.afterStepLocked(step)
	r.mu.Unlock()

	if step.Completion != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.record(ctx, step.Completion.Session())
	}
	return true
}

func (r *Runner) afterStepLocked(step timer.Step) {
	if !step.Transitioned {
		return
	}
	r.emitLocked(EventPhaseChange, nil, nil)
	if step.Completion != nil {
		r.stopTickerLocked()
		s := step.Completion.Session()
		r.emitLocked(EventCompleted, &s, nil)
	}
}

func (r *Runner) record(ctx context.Context, s models.Session) {
	if r.recorder == nil {
		return
	}
	stored, err := r.recorder.SaveSession(ctx, s)
	if err != nil {
		r.log.Error("failed to record session", "run_id", s.RunID, "preset", s.PresetName, "error", err)
		r.requeue(s)
		r.mu.Lock()
		r.emitLocked(EventRecordFailed, &s, err)
		r.mu.Unlock()
		return
	}
	r.log.Info("session recorded",
		"id", stored.ID,
		"run_id", stored.RunID,
		"preset", stored.PresetName,
		"duration_seconds", stored.DurationSeconds)
	r.mu.Lock()
	r.emitLocked(EventRecorded, &stored, nil)
	r.mu.Unlock()
}

func (r *Runner) requeue(s ...models.Session) {
	r.mu.Lock()
	r.pending = append(r.pending, s...)
	r.mu.Unlock()
}

func (r *Runner) emitPhaseLocked(from timer.Phase) {
	if r.engine.State().Phase != from {
		r.emitLocked(EventPhaseChange, nil, nil)
	}
}

func (r *Runner) emitLocked(typ EventType, s *models.Session, err error) {
	event := Event{
		Type:    typ,
		State:   r.engine.Snapshot(),
		Session: s,
		Err:     err,
		At:      time.Now(),
	}
	for _, ch := range r.events {
		select {
		case ch <- event:
		default:
		}
	}
}
