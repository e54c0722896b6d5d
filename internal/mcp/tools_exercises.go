package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/betalog/internal/history"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/units"
	"github.com/mark3labs/mcp-go/mcp"
)

var toolLogExercise = mcp.NewTool("log_exercise",
	mcp.WithDescription("Log a supplementary exercise (pull-ups, campus board, a boulder grade). Sets, reps and weight are optional."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. 'Weighted Pull-ups')")),
	mcp.WithNumber("sets", mcp.Min(0), mcp.Description("Number of sets")),
	mcp.WithNumber("reps", mcp.Min(0), mcp.Description("Reps per set")),
	mcp.WithNumber("weight", mcp.Min(0), mcp.Description("Added weight in the given unit. Omit for bodyweight.")),
	mcp.WithString("unit", mcp.Description("Unit of the weight argument. Defaults to the user's preference."), mcp.Enum("lbs", "kg")),
	mcp.WithString("grade", mcp.Description("Climbing grade, for boulder or route entries")),
	mcp.WithString("notes", mcp.Description("Free-form notes")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List logged exercises, newest first. Weights are stored in lbs."),
	mcp.WithString("name", mcp.Description("Only exercises with this exact name")),
	mcp.WithString("date", mcp.Description("Only exercises logged on this day (YYYY-MM-DD)")),
	mcp.WithString("tz", mcp.Description("IANA time zone used to evaluate date. Defaults to the server zone.")),
	mcp.WithNumber("limit", mcp.Min(0), mcp.Description("Maximum number of entries. Defaults to 50, 0 means no limit.")),
)

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Per-day progress for logged exercises: heaviest weight and total reps. Series with fewer than two logged days are omitted."),
	mcp.WithString("name", mcp.Description("Restrict to one exercise name")),
	mcp.WithString("unit", mcp.Description("Weight unit for the result. Defaults to the user's preference."), mcp.Enum("lbs", "kg")),
	mcp.WithString("tz", mcp.Description("IANA time zone used to group entries by day. Defaults to the server zone.")),
)

var toolSaveWorkout = mcp.NewTool("save_workout",
	mcp.WithDescription("Save a named workout: an ordered list of exercise names."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Workout name (e.g. 'Power Day')")),
	mcp.WithArray("exercises", mcp.Required(), mcp.WithStringItems(), mcp.Description("Exercise names in order")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List saved workouts, newest first."),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get a single saved workout by ID."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Workout ID")),
)

func (h *handlers) logExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	e := models.Exercise{
		Name:  name,
		Sets:  req.GetInt("sets", 0),
		Reps:  req.GetInt("reps", 0),
		Grade: req.GetString("grade", ""),
		Notes: req.GetString("notes", ""),
	}
	if _, ok := req.GetArguments()["weight"]; ok {
		u, err := h.displayUnit(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		e.Weight = models.Some(units.FromDisplay(req.GetFloat("weight", 0), u))
	}

	saved, err := h.ds.SaveExercise(ctx, e)
	if errors.Is(err, storage.ErrInvalidRecord) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp log_exercise", "error", err)
		return mcp.NewToolResultError("save failed: " + err.Error()), nil
	}
	h.log.Info("exercise logged via mcp", "id", saved.ID, "name", saved.Name)
	return jsonResult(saved)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc, err := h.location(req)
	if err != nil {
		return mcp.NewToolResultError("invalid tz: " + err.Error()), nil
	}

	f := models.ExerciseFilter{
		Name:     req.GetString("name", ""),
		Date:     req.GetString("date", ""),
		Location: loc,
		Limit:    req.GetInt("limit", 50),
	}
	exercises, err := h.ds.ListExercises(ctx, f)
	if errors.Is(err, storage.ErrInvalidRecord) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	return jsonResult(exercises)
}

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc, err := h.location(req)
	if err != nil {
		return mcp.NewToolResultError("invalid tz: " + err.Error()), nil
	}
	u, err := h.displayUnit(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("name", "")
	exercises, err := h.ds.ListExercises(ctx, models.ExerciseFilter{Name: name})
	if err != nil {
		h.log.Error("mcp get_exercise_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	progress := history.ExercisesProgress(exercises, u, loc)
	if progress == nil {
		progress = []history.ExerciseProgress{}
	}
	return jsonResult(progress)
}

func (h *handlers) saveWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	exercises, err := req.RequireStringSlice("exercises")
	if err != nil {
		return mcp.NewToolResultError("exercises must be a list of names"), nil
	}

	w, err := h.ds.SaveWorkout(ctx, name, exercises)
	if errors.Is(err, storage.ErrInvalidRecord) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp save_workout", "error", err)
		return mcp.NewToolResultError("save failed: " + err.Error()), nil
	}
	h.log.Info("workout saved via mcp", "id", w.ID, "name", w.Name)
	return jsonResult(w)
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	return jsonResult(workouts)
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	w, err := h.ds.GetWorkout(ctx, int64(id))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("workout %d not found", id)), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(w)
}
