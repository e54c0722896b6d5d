package server

import (
	"context"
	"net/http"

	"github.com/claude/betalog/internal/history"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/units"
)

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	loc, err := s.location(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := s.store.ListSessions(r.Context(), models.SessionFilter{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	exercises, err := s.store.ListExercises(r.Context(), models.ExerciseFilter{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CalendarResponse{Dates: history.LoggedDates(sessions, exercises, loc)})
}

// handleProgress returns per-day series for one preset (?preset=) or for
// every preset with enough data.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	loc, err := s.location(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	unit, err := s.displayUnit(r.Context(), r.URL.Query().Get("unit"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	preset := r.URL.Query().Get("preset")
	sessions, err := s.store.ListSessions(r.Context(), models.SessionFilter{PresetName: preset})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if preset != "" {
		writeJSON(w, http.StatusOK, history.ForPreset(sessions, preset, unit, loc))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(history.Progress(sessions, unit, loc)))
}

// displayUnit resolves an explicit unit, falling back to the stored preference.
func (s *Server) displayUnit(ctx context.Context, requested string) (units.Unit, error) {
	if requested != "" {
		return parseUnit(requested)
	}
	stored, ok, err := s.store.GetSetting(ctx, models.SettingWeightUnit)
	if err != nil {
		return "", err
	}
	if !ok {
		return units.Default, nil
	}
	return parseUnit(stored)
}
