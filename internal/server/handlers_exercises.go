package server

import (
	"net/http"
	"strconv"

	"github.com/claude/betalog/internal/history"
	"github.com/claude/betalog/internal/models"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc, err := s.location(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	f := models.ExerciseFilter{
		Name:     q.Get("name"),
		Date:     q.Get("date"),
		Location: loc,
	}
	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		f.Limit = limit
	}

	exercises, err := s.store.ListExercises(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(exercises))
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := s.store.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleCreateExercise logs an exercise. Weights are canonical pounds.
func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var in models.Exercise
	if !decodeJSON(w, r, &in) {
		return
	}
	saved, err := s.store.SaveExercise(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteExercise(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExerciseProgress returns per-day series for one exercise (?name=)
// or for every exercise with enough data.
func (s *Server) handleExerciseProgress(w http.ResponseWriter, r *http.Request) {
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

	name := r.URL.Query().Get("name")
	exercises, err := s.store.ListExercises(r.Context(), models.ExerciseFilter{Name: name})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if name != "" {
		writeJSON(w, http.StatusOK, history.ForExercise(exercises, name, unit, loc))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(history.ExercisesProgress(exercises, unit, loc)))
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.store.ListWorkouts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(workouts))
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	wo, err := s.store.GetWorkout(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req models.WorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wo, err := s.store.SaveWorkout(r.Context(), req.Name, req.Exercises)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wo)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteWorkout(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
