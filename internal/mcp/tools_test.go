package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/betalog/internal/history"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage/sqlite"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestHandlers(t *testing.T) (*handlers, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "betalog.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &handlers{ds: db, loc: time.UTC, log: slog.New(slog.NewTextHandler(io.Discard, nil))}, db
}

type toolFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, fn toolFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("tool returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", res.Content[0])
	}
	return tc.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(t, res)), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func seedSession(t *testing.T, db *sqlite.DB, name string, weight float64, at time.Time) models.Session {
	t.Helper()
	cfg := models.TimerConfig{Sets: 1, Reps: 1, WorkTime: 10, Weight: models.Some(weight)}
	s, err := db.SaveSession(context.Background(), models.Session{
		RunID:           uuid.New(),
		PresetName:      name,
		Config:          cfg,
		DurationSeconds: cfg.TotalSeconds(),
		CompletedAt:     at,
	})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	return s
}

// TestSavePresetConvertsWeight verifies weights given in kg are stored in lbs.
func TestSavePresetConvertsWeight(t *testing.T) {
	h, db := newTestHandlers(t)

	p := decodeResult[models.Preset](t, call(t, h.savePreset, map[string]any{
		"name":      "Max Hangs",
		"sets":      float64(6),
		"reps":      float64(1),
		"work_time": float64(10),
		"set_rest":  float64(180),
		"weight":    float64(10),
		"unit":      "kg",
	}))
	if p.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	stored, err := db.GetPreset(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	w, ok := stored.Config.Weight.Get()
	if !ok || w != 22.0 {
		t.Errorf("weight = %v (set=%v), want 22 lbs", w, ok)
	}
	if stored.Config.Edge.IsSet() {
		t.Error("edge should be absent")
	}
}

// TestSavePresetInvalid verifies validation failures come back as tool errors.
func TestSavePresetInvalid(t *testing.T) {
	h, _ := newTestHandlers(t)

	res := call(t, h.savePreset, map[string]any{"name": "Broken", "sets": float64(0), "reps": float64(1), "work_time": float64(5)})
	if !res.IsError {
		t.Error("expected tool error for zero sets")
	}
	res = call(t, h.savePreset, map[string]any{"sets": float64(1)})
	if !res.IsError {
		t.Error("expected tool error for missing name")
	}
}

// TestGetPresetNotFound verifies a missing ID is reported as a tool error.
func TestGetPresetNotFound(t *testing.T) {
	h, _ := newTestHandlers(t)
	if res := call(t, h.getPreset, map[string]any{"id": float64(42)}); !res.IsError {
		t.Error("expected tool error")
	}
}

// TestListSessionsFilters verifies the preset and date arguments reach the store.
func TestListSessionsFilters(t *testing.T) {
	h, db := newTestHandlers(t)
	day := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	seedSession(t, db, "Max Hangs", 20, day)
	seedSession(t, db, "Repeaters", 0, day)
	seedSession(t, db, "Max Hangs", 25, day.AddDate(0, 0, 1))

	got := decodeResult[[]models.Session](t, call(t, h.listSessions, map[string]any{"preset": "Max Hangs"}))
	if len(got) != 2 {
		t.Errorf("preset filter: got %d, want 2", len(got))
	}

	got = decodeResult[[]models.Session](t, call(t, h.listSessions, map[string]any{"date": "2026-04-02"}))
	if len(got) != 2 {
		t.Errorf("date filter: got %d, want 2", len(got))
	}

	got = decodeResult[[]models.Session](t, call(t, h.listSessions, map[string]any{"date": "2026-01-01"}))
	if got == nil || len(got) != 0 {
		t.Errorf("empty day: got %v, want []", got)
	}

	if res := call(t, h.listSessions, map[string]any{"date": "yesterday"}); !res.IsError {
		t.Error("expected tool error for bad date")
	}
	if res := call(t, h.listSessions, map[string]any{"tz": "Nowhere/Land"}); !res.IsError {
		t.Error("expected tool error for bad tz")
	}
}

// TestGetProgressUsesPreference verifies the stored weight unit is applied
// when no unit argument is given.
func TestGetProgressUsesPreference(t *testing.T) {
	h, db := newTestHandlers(t)
	day := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	seedSession(t, db, "Max Hangs", 22.0462, day)
	seedSession(t, db, "Max Hangs", 44.0924, day.AddDate(0, 0, 1))
	if err := db.SetSetting(context.Background(), models.SettingWeightUnit, "kg"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	got := decodeResult[[]history.PresetProgress](t, call(t, h.getProgress, map[string]any{}))
	if len(got) != 1 {
		t.Fatalf("got %d presets, want 1", len(got))
	}
	if got[0].Unit != "kg" {
		t.Errorf("unit = %q, want kg", got[0].Unit)
	}
	if len(got[0].Weight) != 2 || got[0].Weight[1].Value != 20 {
		t.Errorf("weight series = %+v", got[0].Weight)
	}

	lbs := decodeResult[[]history.PresetProgress](t, call(t, h.getProgress, map[string]any{"unit": "lbs"}))
	if lbs[0].Unit != "lbs" {
		t.Errorf("unit override = %q, want lbs", lbs[0].Unit)
	}
}

// TestGetCalendar verifies logged days are grouped in the requested zone.
func TestGetCalendar(t *testing.T) {
	if _, err := time.LoadLocation("Etc/GMT-2"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	h, db := newTestHandlers(t)
	seedSession(t, db, "Custom", 0, time.Date(2026, 4, 2, 23, 30, 0, 0, time.UTC))
	seedSession(t, db, "Custom", 0, time.Date(2026, 4, 3, 0, 30, 0, 0, time.UTC))

	got := decodeResult[models.CalendarResponse](t, call(t, h.getCalendar, map[string]any{}))
	if len(got.Dates) != 2 || got.Dates[0] != "2026-04-02" {
		t.Errorf("UTC dates = %v", got.Dates)
	}

	shifted := decodeResult[models.CalendarResponse](t, call(t, h.getCalendar, map[string]any{"tz": "Etc/GMT-2"}))
	if len(shifted.Dates) != 1 || shifted.Dates[0] != "2026-04-03" {
		t.Errorf("shifted dates = %v", shifted.Dates)
	}
}

// TestRecentSessionsResource verifies old sessions are left out of the resource.
func TestRecentSessionsResource(t *testing.T) {
	h, db := newTestHandlers(t)
	seedSession(t, db, "Custom", 0, time.Now().Add(-time.Hour))
	seedSession(t, db, "Custom", 0, time.Now().AddDate(0, 0, -30))

	var req mcp.ReadResourceRequest
	req.Params.URI = resRecentSessions.URI
	contents, err := h.recentSessions(context.Background(), req)
	if err != nil {
		t.Fatalf("recentSessions: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var got []models.Session
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d sessions, want 1", len(got))
	}
}

// TestLogExerciseConvertsWeight verifies exercise weights given in kg are stored in lbs.
func TestLogExerciseConvertsWeight(t *testing.T) {
	h, db := newTestHandlers(t)

	e := decodeResult[models.Exercise](t, call(t, h.logExercise, map[string]any{
		"name":   "Weighted Pull-ups",
		"sets":   float64(3),
		"reps":   float64(5),
		"weight": float64(10),
		"unit":   "kg",
		"notes":  "smooth",
	}))
	stored, err := db.GetExercise(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetExercise: %v", err)
	}
	if w, ok := stored.Weight.Get(); !ok || w != 22.0 {
		t.Errorf("weight = %v (set=%v), want 22 lbs", w, ok)
	}
	if stored.Sets != 3 || stored.Reps != 5 || stored.Notes != "smooth" {
		t.Errorf("stored = %+v", stored)
	}

	if res := call(t, h.logExercise, map[string]any{"sets": float64(1)}); !res.IsError {
		t.Error("expected tool error for missing name")
	}
}

// TestListExercisesTool verifies filters reach the store and empty results are a list.
func TestListExercisesTool(t *testing.T) {
	h, db := newTestHandlers(t)
	ctx := context.Background()

	empty := call(t, h.listExercises, map[string]any{})
	if got := strings.TrimSpace(resultText(t, empty)); got != "[]" {
		t.Errorf("empty result = %q, want []", got)
	}

	for _, e := range []models.Exercise{
		{Name: "Pull-ups", Reps: 10, CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		{Name: "Dips", Reps: 12, CreatedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)},
	} {
		if _, err := db.SaveExercise(ctx, e); err != nil {
			t.Fatalf("SaveExercise: %v", err)
		}
	}

	got := decodeResult[[]models.Exercise](t, call(t, h.listExercises, map[string]any{"date": "2026-05-01"}))
	if len(got) != 1 || got[0].Name != "Pull-ups" {
		t.Errorf("date filter = %+v", got)
	}
	if res := call(t, h.listExercises, map[string]any{"date": "yesterday"}); !res.IsError {
		t.Error("expected tool error for malformed date")
	}
}

// TestGetExerciseProgressTool verifies series use the stored unit preference.
func TestGetExerciseProgressTool(t *testing.T) {
	h, db := newTestHandlers(t)
	ctx := context.Background()

	for i, w := range []float64{22.0462, 44.0924} {
		_, err := db.SaveExercise(ctx, models.Exercise{
			Name:      "Weighted Pull-ups",
			Sets:      1,
			Reps:      5,
			Weight:    models.Some(w),
			CreatedAt: time.Date(2026, 6, 1+i, 18, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("SaveExercise: %v", err)
		}
	}
	if err := db.SetSetting(ctx, models.SettingWeightUnit, "kg"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	got := decodeResult[[]history.ExerciseProgress](t, call(t, h.getExerciseProgress, map[string]any{}))
	if len(got) != 1 {
		t.Fatalf("got %d exercises, want 1", len(got))
	}
	p := got[0]
	if p.Unit != "kg" || len(p.Weight) != 2 || p.Weight[0].Value != 10 || p.Weight[1].Value != 20 {
		t.Errorf("progress = %+v", p)
	}
}

// TestWorkoutTools verifies save, get and list of workouts.
func TestWorkoutTools(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := decodeResult[models.Workout](t, call(t, h.saveWorkout, map[string]any{
		"name":      "Power Day",
		"exercises": []any{"Max Hangs", "Campus Board"},
	}))
	if w.ID == 0 || len(w.Exercises) != 2 {
		t.Fatalf("saved = %+v", w)
	}

	got := decodeResult[models.Workout](t, call(t, h.getWorkout, map[string]any{"id": float64(w.ID)}))
	if got.Name != "Power Day" || got.Exercises[0] != "Max Hangs" {
		t.Errorf("get = %+v", got)
	}
	if res := call(t, h.getWorkout, map[string]any{"id": float64(999)}); !res.IsError {
		t.Error("expected tool error for missing workout")
	}
	if res := call(t, h.saveWorkout, map[string]any{"name": "Empty", "exercises": []any{}}); !res.IsError {
		t.Error("expected tool error for empty workout")
	}

	list := decodeResult[[]models.Workout](t, call(t, h.listWorkouts, map[string]any{}))
	if len(list) != 1 {
		t.Errorf("list = %+v", list)
	}
}

// TestGetCalendarIncludesExercises verifies exercise-only days appear in the calendar.
func TestGetCalendarIncludesExercises(t *testing.T) {
	h, db := newTestHandlers(t)
	seedSession(t, db, "Custom", 0, time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC))
	if _, err := db.SaveExercise(context.Background(), models.Exercise{
		Name: "Pull-ups", Reps: 8, CreatedAt: time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("SaveExercise: %v", err)
	}

	got := decodeResult[models.CalendarResponse](t, call(t, h.getCalendar, map[string]any{}))
	if len(got.Dates) != 2 || got.Dates[1] != "2026-04-05" {
		t.Errorf("dates = %v", got.Dates)
	}
}
