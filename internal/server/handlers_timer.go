package server

import (
	"fmt"
	"net/http"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/timer"
)

// timerResponse is the host timer's state as seen by clients.
type timerResponse struct {
	timer.Snapshot
	Clock           string `json:"clock"`
	TotalSeconds    int    `json:"total_seconds"`
	PendingSessions int    `json:"pending_sessions"`
}

// loadRequest selects a stored preset by ID, or supplies a name and config inline.
type loadRequest struct {
	PresetID int64               `json:"preset_id,omitempty"`
	Name     string              `json:"name,omitempty"`
	Config   *models.TimerConfig `json:"config,omitempty"`
}

func (s *Server) writeTimer(w http.ResponseWriter, snap timer.Snapshot) {
	writeJSON(w, http.StatusOK, s.timerState(snap))
}

func (s *Server) handleTimerState(w http.ResponseWriter, r *http.Request) {
	s.writeTimer(w, s.timer.Snapshot())
}

func (s *Server) handleTimerConfigure(w http.ResponseWriter, r *http.Request) {
	var patch models.ConfigPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	snap, err := s.timer.Configure(patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeTimer(w, snap)
}

func (s *Server) handleTimerLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name, cfg := req.Name, req.Config
	if req.PresetID > 0 {
		p, err := s.store.GetPreset(r.Context(), req.PresetID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		name, cfg = p.Name, &p.Config
	}
	if cfg == nil {
		s.writeError(w, fmt.Errorf("%w: preset_id or config is required", storage.ErrInvalidRecord))
		return
	}

	snap, err := s.timer.LoadPreset(name, *cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeTimer(w, snap)
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.timer.Start()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeTimer(w, snap)
}

func (s *Server) handleTimerPause(w http.ResponseWriter, r *http.Request) {
	s.writeTimer(w, s.timer.Pause())
}

func (s *Server) handleTimerResume(w http.ResponseWriter, r *http.Request) {
	s.writeTimer(w, s.timer.Resume())
}

func (s *Server) handleTimerReset(w http.ResponseWriter, r *http.Request) {
	s.writeTimer(w, s.timer.Reset())
}

func (s *Server) handleTimerSkip(w http.ResponseWriter, r *http.Request) {
	s.writeTimer(w, s.timer.Skip(r.Context()))
}

// handleTimerRetry re-submits completed sessions whose save failed.
func (s *Server) handleTimerRetry(w http.ResponseWriter, r *http.Request) {
	saved, err := s.timer.RetryPending(r.Context())
	resp := map[string]any{
		"saved":   saved,
		"pending": len(s.timer.Pending()),
	}
	if err != nil {
		s.log.Warn("retrying pending sessions", "saved", saved, "error", err)
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
