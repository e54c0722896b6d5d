package timer

import "github.com/claude/betalog/internal/models"

// Phase is one segment of an interval workout, or one of the idle/completed meta-states.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseWork      Phase = "work"
	PhaseRepRest   Phase = "rep_rest"
	PhaseSetRest   Phase = "set_rest"
	PhaseCompleted Phase = "completed"
)

// Active reports whether time can advance in this phase.
func (p Phase) Active() bool {
	return p == PhaseWork || p == PhaseRepRest || p == PhaseSetRest
}

// Position identifies where a run is: the phase and the 1-indexed set/rep.
type Position struct {
	Phase Phase
	Set   int
	Rep   int
}

// Advance is the phase transition rule shared by Tick (at the end of a phase)
// and Skip. It is a pure function of the position and configuration and returns
// the next position with that phase's duration. Rests of zero length are passed
// through, so a transition out of work with RepRest 0 lands directly on the next rep.
func Advance(pos Position, cfg models.TimerConfig) (Position, int) {
	next, remaining := step(pos, cfg)
	for remaining == 0 && (next.Phase == PhaseRepRest || next.Phase == PhaseSetRest) {
		next, remaining = step(next, cfg)
	}
	return next, remaining
}

func step(pos Position, cfg models.TimerConfig) (Position, int) {
	switch pos.Phase {
	case PhaseWork:
		if pos.Rep < cfg.Reps {
			return Position{Phase: PhaseRepRest, Set: pos.Set, Rep: pos.Rep}, cfg.RepRest
		}
		if pos.Set < cfg.Sets {
			return Position{Phase: PhaseSetRest, Set: pos.Set, Rep: pos.Rep}, cfg.SetRest
		}
		return Position{Phase: PhaseCompleted, Set: pos.Set, Rep: pos.Rep}, 0
	case PhaseRepRest:
		return Position{Phase: PhaseWork, Set: pos.Set, Rep: pos.Rep + 1}, cfg.WorkTime
	case PhaseSetRest:
		return Position{Phase: PhaseWork, Set: pos.Set + 1, Rep: 1}, cfg.WorkTime
	default:
		return pos, 0
	}
}
