package server

import (
	"fmt"
	"net/http"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/units"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, ok, err := s.store.GetSetting(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "setting not found"})
		return
	}
	writeJSON(w, http.StatusOK, models.Setting{Key: key, Value: value})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req models.Setting
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateSetting(key, req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SetSetting(r.Context(), key, req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Setting{Key: key, Value: req.Value})
}

// validateSetting checks values of well-known keys. Other keys are free-form.
func validateSetting(key, value string) error {
	switch key {
	case models.SettingWeightUnit:
		if _, err := parseUnit(value); err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("%w: weight_unit cannot be empty", storage.ErrInvalidRecord)
		}
	case models.SettingOnboardingComplete:
		if value != "true" && value != "false" {
			return fmt.Errorf("%w: onboarding_complete must be \"true\" or \"false\"", storage.ErrInvalidRecord)
		}
	}
	return nil
}

func parseUnit(s string) (units.Unit, error) {
	u, err := units.ParseUnit(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	return u, nil
}
