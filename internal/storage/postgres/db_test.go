package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/google/uuid"
)

// openTestDB connects to BETALOG_TEST_POSTGRES_DSN and empties the tables.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("BETALOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BETALOG_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Pool.Exec(ctx, `TRUNCATE hangboard_sessions, timer_presets, exercises, workouts, settings RESTART IDENTITY`); err != nil {
		t.Fatalf("truncating: %v", err)
	}
	return db
}

// TestSaveSessionIdempotent verifies a retried save returns the stored row.
func TestSaveSessionIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := models.Session{
		RunID:           uuid.New(),
		PresetName:      "Custom",
		Config:          models.DefaultTimerConfig(),
		DurationSeconds: 390,
		CompletedAt:     time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	first, err := db.SaveSession(ctx, s)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := db.SaveSession(ctx, s)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("IDs differ: %d vs %d", first.ID, second.ID)
	}
	if second.RunID != s.RunID {
		t.Errorf("RunID = %s, want %s", second.RunID, s.RunID)
	}

	list, err := db.ListSessions(ctx, models.SessionFilter{Date: "2026-06-01", Location: time.UTC})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d sessions, want 1", len(list))
	}
}

// TestReplacePreset verifies replace-by-delete-and-insert semantics.
func TestReplacePreset(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.SavePreset(ctx, "Repeaters", models.DefaultTimerConfig())
	if err != nil {
		t.Fatalf("SavePreset: %v", err)
	}
	cfg := models.DefaultTimerConfig()
	cfg.Weight = models.Some(10.0)
	r, err := db.ReplacePreset(ctx, p.ID, "Repeaters", cfg)
	if err != nil {
		t.Fatalf("ReplacePreset: %v", err)
	}
	if r.ID == p.ID {
		t.Error("expected a new ID")
	}
	if _, err := db.GetPreset(ctx, p.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("old preset: got %v", err)
	}
	if _, err := db.ReplacePreset(ctx, p.ID, "Repeaters", cfg); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing preset: got %v", err)
	}
}

// TestSettings verifies upsert.
func TestSettings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SetSetting(ctx, models.SettingOnboardingComplete, "true"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	v, ok, err := db.GetSetting(ctx, models.SettingOnboardingComplete)
	if err != nil || !ok || v != "true" {
		t.Errorf("GetSetting = %q, %v, %v", v, ok, err)
	}
}

// TestExerciseRoundTrip verifies JSONB set detail and date filtering.
func TestExerciseRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	at := time.Date(2026, 6, 2, 18, 0, 0, 0, time.UTC)
	e, err := db.SaveExercise(ctx, models.Exercise{
		Name:      "Weighted Pull-ups",
		Sets:      2,
		Reps:      5,
		SetsData:  []models.SetEntry{{Reps: 5, Weight: models.Some(44.0)}, {Reps: 4}},
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("SaveExercise: %v", err)
	}
	got, err := db.GetExercise(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExercise: %v", err)
	}
	if len(got.SetsData) != 2 || got.Weight.IsSet() {
		t.Errorf("got %+v", got)
	}
	if w, ok := got.MaxWeight(); !ok || w != 44 {
		t.Errorf("MaxWeight = %v, %v", w, ok)
	}

	byDate, err := db.ListExercises(ctx, models.ExerciseFilter{Date: "2026-06-02", Location: time.UTC})
	if err != nil || len(byDate) != 1 {
		t.Errorf("date filter = %d, %v", len(byDate), err)
	}
	if err := db.DeleteExercise(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExercise: %v", err)
	}
	if err := db.DeleteExercise(ctx, e.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

// TestWorkoutRoundTrip verifies exercise names keep their order in the array column.
func TestWorkoutRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	w, err := db.SaveWorkout(ctx, "Power Day", []string{"Max Hangs", "Campus Board"})
	if err != nil {
		t.Fatalf("SaveWorkout: %v", err)
	}
	got, err := db.GetWorkout(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetWorkout: %v", err)
	}
	if len(got.Exercises) != 2 || got.Exercises[0] != "Max Hangs" || got.Exercises[1] != "Campus Board" {
		t.Errorf("Exercises = %v", got.Exercises)
	}
	if err := db.DeleteWorkout(ctx, w.ID); err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}
	if _, err := db.GetWorkout(ctx, w.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetWorkout after delete: got %v", err)
	}
}
