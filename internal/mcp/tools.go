package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/betalog/internal/history"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/units"
	"github.com/mark3labs/mcp-go/mcp"
)

// location resolves the optional tz argument, falling back to the server zone.
func (h *handlers) location(req mcp.CallToolRequest) (*time.Location, error) {
	name := req.GetString("tz", "")
	if name == "" {
		return h.loc, nil
	}
	return time.LoadLocation(name)
}

// displayUnit resolves the unit argument, then the stored preference.
func (h *handlers) displayUnit(ctx context.Context, req mcp.CallToolRequest) (units.Unit, error) {
	if raw := req.GetString("unit", ""); raw != "" {
		return units.ParseUnit(raw)
	}
	raw, ok, err := h.ds.GetSetting(ctx, models.SettingWeightUnit)
	if err != nil {
		h.log.Warn("mcp weight unit lookup failed", "error", err)
		return units.Default, nil
	}
	if !ok {
		return units.Default, nil
	}
	u, err := units.ParseUnit(raw)
	if err != nil {
		return units.Default, nil
	}
	return u, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolListPresets = mcp.NewTool("list_presets",
	mcp.WithDescription("List all saved timer presets, newest first. Each preset has sets, reps, work and rest durations in seconds, and optional weight (lbs) and edge (mm)."),
)

var toolGetPreset = mcp.NewTool("get_preset",
	mcp.WithDescription("Get a single saved preset by ID."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Preset ID")),
)

var toolSavePreset = mcp.NewTool("save_preset",
	mcp.WithDescription("Save a new timer preset. Durations are whole seconds. Work time, sets and reps must be at least 1."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Preset name (e.g. 'Max Hangs')")),
	mcp.WithNumber("sets", mcp.Required(), mcp.Min(1), mcp.Description("Number of sets")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Min(1), mcp.Description("Reps per set")),
	mcp.WithNumber("work_time", mcp.Required(), mcp.Min(1), mcp.Description("Seconds of work per rep")),
	mcp.WithNumber("rep_rest", mcp.Min(0), mcp.Description("Seconds of rest between reps. Defaults to 0.")),
	mcp.WithNumber("set_rest", mcp.Min(0), mcp.Description("Seconds of rest between sets. Defaults to 0.")),
	mcp.WithNumber("weight", mcp.Description("Added weight in the given unit. Omit for bodyweight.")),
	mcp.WithNumber("edge", mcp.Description("Edge depth in millimetres. Omit if not tracked.")),
	mcp.WithString("unit", mcp.Description("Unit of the weight argument. Defaults to the user's preference."), mcp.Enum("lbs", "kg")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List completed timer sessions, newest first, with optional preset and day filters."),
	mcp.WithString("preset", mcp.Description("Only sessions recorded under this preset name ('Custom' for unsaved configurations)")),
	mcp.WithString("date", mcp.Description("Only sessions completed on this day (YYYY-MM-DD)")),
	mcp.WithString("tz", mcp.Description("IANA time zone used to evaluate date. Defaults to the server zone.")),
	mcp.WithNumber("limit", mcp.Min(0), mcp.Description("Maximum number of sessions. Defaults to 50, 0 means no limit.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get a single completed session by ID."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Per-day training progress for each preset: maximum weight, minimum edge and total hang time. Series with fewer than two logged days are omitted."),
	mcp.WithString("preset", mcp.Description("Restrict to one preset name")),
	mcp.WithString("unit", mcp.Description("Weight unit for the result. Defaults to the user's preference."), mcp.Enum("lbs", "kg")),
	mcp.WithString("tz", mcp.Description("IANA time zone used to group sessions by day. Defaults to the server zone.")),
)

var toolGetCalendar = mcp.NewTool("get_calendar",
	mcp.WithDescription("Days (YYYY-MM-DD) with at least one completed session or logged exercise, ascending."),
	mcp.WithString("tz", mcp.Description("IANA time zone used to group sessions by day. Defaults to the server zone.")),
)

// --- Tool handlers ---

func (h *handlers) listPresets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presets, err := h.ds.ListPresets(ctx)
	if err != nil {
		h.log.Error("mcp list_presets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(presets)
}

func (h *handlers) getPreset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	p, err := h.ds.GetPreset(ctx, int64(id))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("preset %d not found", id)), nil
	}
	if err != nil {
		h.log.Error("mcp get_preset", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) savePreset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	cfg := models.TimerConfig{
		Sets:     req.GetInt("sets", 0),
		Reps:     req.GetInt("reps", 0),
		WorkTime: req.GetInt("work_time", 0),
		RepRest:  req.GetInt("rep_rest", 0),
		SetRest:  req.GetInt("set_rest", 0),
	}
	args := req.GetArguments()
	if _, ok := args["weight"]; ok {
		u, err := h.displayUnit(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cfg.Weight = models.Some(units.FromDisplay(req.GetFloat("weight", 0), u))
	}
	if _, ok := args["edge"]; ok {
		cfg.Edge = models.Some(req.GetFloat("edge", 0))
	}

	p, err := h.ds.SavePreset(ctx, name, cfg)
	if errors.Is(err, storage.ErrInvalidRecord) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp save_preset", "error", err)
		return mcp.NewToolResultError("save failed: " + err.Error()), nil
	}
	h.log.Info("preset saved via mcp", "id", p.ID, "name", p.Name)
	return jsonResult(p)
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc, err := h.location(req)
	if err != nil {
		return mcp.NewToolResultError("invalid tz: " + err.Error()), nil
	}

	f := models.SessionFilter{
		PresetName: req.GetString("preset", ""),
		Date:       req.GetString("date", ""),
		Location:   loc,
		Limit:      req.GetInt("limit", 50),
	}
	sessions, err := h.ds.ListSessions(ctx, f)
	if errors.Is(err, storage.ErrInvalidRecord) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return jsonResult(sessions)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	s, err := h.ds.GetSession(ctx, int64(id))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %d not found", id)), nil
	}
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(s)
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc, err := h.location(req)
	if err != nil {
		return mcp.NewToolResultError("invalid tz: " + err.Error()), nil
	}
	u, err := h.displayUnit(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	preset := req.GetString("preset", "")
	sessions, err := h.ds.ListSessions(ctx, models.SessionFilter{PresetName: preset})
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	progress := history.Progress(sessions, u, loc)
	if progress == nil {
		progress = []history.PresetProgress{}
	}
	return jsonResult(progress)
}

func (h *handlers) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc, err := h.location(req)
	if err != nil {
		return mcp.NewToolResultError("invalid tz: " + err.Error()), nil
	}

	sessions, err := h.ds.ListSessions(ctx, models.SessionFilter{})
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	exercises, err := h.ds.ListExercises(ctx, models.ExerciseFilter{})
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(models.CalendarResponse{Dates: history.LoggedDates(sessions, exercises, loc)})
}
