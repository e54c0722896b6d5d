package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

const recentWindow = 14 * 24 * time.Hour

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions, err := h.ds.ListSessions(ctx, models.SessionFilter{})
	if err != nil {
		return nil, err
	}

	// Sessions arrive newest first.
	cutoff := time.Now().Add(-recentWindow)
	recent := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.CompletedAt.Before(cutoff) {
			break
		}
		recent = append(recent, s)
	}
	return jsonContents(req.Params.URI, recent)
}

func (h *handlers) presets(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	presets, err := h.ds.ListPresets(ctx)
	if err != nil {
		return nil, err
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	return jsonContents(req.Params.URI, presets)
}

func (h *handlers) workouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	return jsonContents(req.Params.URI, workouts)
}

func (h *handlers) settings(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out := map[string]string{}
	for _, key := range []string{models.SettingWeightUnit, models.SettingOnboardingComplete} {
		v, ok, err := h.ds.GetSetting(ctx, key)
		if err != nil {
			h.log.Warn("settings resource: lookup failed", "key", key, "error", err)
			continue
		}
		if ok {
			out[key] = v
		}
	}
	return jsonContents(req.Params.URI, out)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
