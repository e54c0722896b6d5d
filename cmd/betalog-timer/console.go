package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/runner"
	"github.com/claude/betalog/internal/timer"
	"github.com/claude/betalog/internal/units"
)

const help = "keys: p pause, r resume, s skip, x abandon, q quit"

var phaseLabels = map[timer.Phase]string{
	timer.PhaseWork:    "HANG",
	timer.PhaseRepRest: "REST",
	timer.PhaseSetRest: "SET REST",
}

var labelStyle = lipgloss.NewStyle().Bold(true).Width(9)

var phaseStyles = map[timer.Phase]lipgloss.Style{
	timer.PhaseWork:    labelStyle.Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF5F5F"}),
	timer.PhaseRepRest: labelStyle.Foreground(lipgloss.AdaptiveColor{Light: "#00695C", Dark: "#5FD7AF"}),
	timer.PhaseSetRest: labelStyle.Foreground(lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#5FAFFF"}),
}

var (
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FFD700", Dark: "#FFD700"})
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
	doneStyle   = lipgloss.NewStyle().Bold(true)
)

// console maps typed commands to runner intents and prints events.
type console struct {
	timer *runner.Runner
	out   io.Writer
	unit  units.Unit
}

// command applies one input line. It reports true when the program should exit.
func (c *console) command(ctx context.Context, line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p":
		c.timer.Pause()
	case "r":
		c.timer.Resume()
	case "s":
		c.timer.Skip(ctx)
	case "x":
		c.timer.Reset()
		fmt.Fprintln(c.out, "run abandoned, nothing recorded")
		return true
	case "q":
		return true
	default:
		fmt.Fprintln(c.out, mutedStyle.Render(help))
	}
	return false
}

// event prints ev. It reports true once the completed run has been recorded
// or the save has failed; err is set in the latter case.
func (c *console) event(ev runner.Event) (done bool, err error) {
	switch ev.Type {
	case runner.EventTick, runner.EventPhaseChange:
		fmt.Fprintln(c.out, statusLine(ev.State))
	case runner.EventCompleted:
		fmt.Fprintln(c.out, doneStyle.Render(summary(*ev.Session, c.unit)))
	case runner.EventRecorded:
		fmt.Fprintf(c.out, "saved session #%d\n", ev.Session.ID)
		return true, nil
	case runner.EventRecordFailed:
		fmt.Fprintf(c.out, "could not save session: %v\n", ev.Err)
		return true, ev.Err
	}
	return false, nil
}

func statusLine(s timer.Snapshot) string {
	switch s.Phase {
	case timer.PhaseIdle:
		return "ready"
	case timer.PhaseCompleted:
		return "done"
	}
	line := fmt.Sprintf("%s set %d/%d  rep %d/%d  %s",
		phaseStyles[s.Phase].Render(phaseLabels[s.Phase]), s.CurrentSet, s.Config.Sets, s.CurrentRep, s.Config.Reps,
		timer.FormatClock(s.SecondsRemaining))
	if !s.IsRunning {
		line += pausedStyle.Render("  (paused)")
	}
	return line
}

func summary(s models.Session, u units.Unit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "completed %s in %s (%dx%d", s.PresetName, timer.FormatClock(s.DurationSeconds), s.Config.Sets, s.Config.Reps)
	if w, ok := s.Config.Weight.Get(); ok {
		fmt.Fprintf(&b, ", +%s", units.Format(w, u))
	}
	if e, ok := s.Config.Edge.Get(); ok {
		fmt.Fprintf(&b, ", %gmm edge", e)
	}
	b.WriteString(")")
	return b.String()
}
