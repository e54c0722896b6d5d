package history

import (
	"testing"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/units"
)

func session(name string, at time.Time, weight, edge *float64) models.Session {
	cfg := models.TimerConfig{Sets: 2, Reps: 3, WorkTime: 10, RepRest: 5, SetRest: 60}
	cfg.Weight = models.OptionalFromPtr(weight)
	cfg.Edge = models.OptionalFromPtr(edge)
	return models.Session{PresetName: name, Config: cfg, CompletedAt: at}
}

func f(v float64) *float64 { return &v }

// TestDateKeyLocation verifies the calendar day follows the given location.
func TestDateKeyLocation(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if got := DateKey(at, time.UTC); got != "2026-01-02" {
		t.Errorf("UTC = %q, want 2026-01-02", got)
	}
	if got := DateKey(at, ny); got != "2026-01-01" {
		t.Errorf("New York = %q, want 2026-01-01", got)
	}
}

// TestLoggedDates verifies dates are unique and sorted.
func TestLoggedDates(t *testing.T) {
	d1 := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		session("A", d1, nil, nil),
		session("B", d1.Add(2*time.Hour), nil, nil),
		session("A", d2, nil, nil),
	}
	got := LoggedDates(sessions, nil, time.UTC)
	want := []string{"2026-04-01", "2026-04-02"}
	if len(got) != len(want) {
		t.Fatalf("LoggedDates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LoggedDates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := LoggedDates(nil, nil, time.UTC); len(got) != 0 {
		t.Errorf("empty input: got %v", got)
	}
}

// TestForPresetAggregates verifies daily max weight, min edge and summed hang time.
func TestForPresetAggregates(t *testing.T) {
	d1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 3, 8, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		session("Max Hangs", d1, f(20), f(20)),
		session("Max Hangs", d1.Add(time.Hour), f(25), f(18)),
		session("Max Hangs", d2, f(30), nil),
		session("Other", d2, f(100), f(6)),
	}

	p := ForPreset(sessions, "Max Hangs", units.Lbs, time.UTC)

	if len(p.Weight) != 2 || p.Weight[0].Value != 25 || p.Weight[1].Value != 30 {
		t.Errorf("Weight = %+v", p.Weight)
	}
	if len(p.HangTime) != 2 || p.HangTime[0].Value != 120 || p.HangTime[1].Value != 60 {
		t.Errorf("HangTime = %+v", p.HangTime)
	}
	// Edge only has one day of data.
	if p.Edge != nil {
		t.Errorf("Edge = %+v, want nil", p.Edge)
	}
	if p.Weight[0].Date != "2026-04-01" {
		t.Errorf("first date = %q", p.Weight[0].Date)
	}
}

// TestForPresetKg verifies weights are converted for display.
func TestForPresetKg(t *testing.T) {
	d1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		session("Max Hangs", d1, f(22.0462), nil),
		session("Max Hangs", d1.AddDate(0, 0, 1), f(44.0924), nil),
	}
	p := ForPreset(sessions, "Max Hangs", units.Kg, time.UTC)
	if len(p.Weight) != 2 || p.Weight[0].Value != 10 || p.Weight[1].Value != 20 {
		t.Errorf("Weight = %+v", p.Weight)
	}
	if p.Unit != units.Kg {
		t.Errorf("Unit = %q", p.Unit)
	}
}

// TestProgressOmitsSparsePresets verifies single-day presets are dropped.
func TestProgressOmitsSparsePresets(t *testing.T) {
	d1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		session("B", d1, nil, nil),
		session("B", d1.AddDate(0, 0, 1), nil, nil),
		session("A", d1, nil, nil),
	}
	got := Progress(sessions, units.Lbs, time.UTC)
	if len(got) != 1 || got[0].PresetName != "B" {
		t.Errorf("Progress = %+v", got)
	}
}

func exercise(name string, at time.Time, sets, reps int, weight *float64) models.Exercise {
	return models.Exercise{Name: name, Sets: sets, Reps: reps, Weight: models.OptionalFromPtr(weight), CreatedAt: at}
}

// TestLoggedDatesIncludesExercises verifies exercise-only days appear on the calendar.
func TestLoggedDatesIncludesExercises(t *testing.T) {
	d1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 5, 8, 0, 0, 0, time.UTC)
	sessions := []models.Session{session("A", d1, nil, nil)}
	exercises := []models.Exercise{
		exercise("Campus Board", d1.Add(time.Hour), 3, 4, nil),
		exercise("Pull-ups", d2, 3, 8, nil),
	}
	got := LoggedDates(sessions, exercises, time.UTC)
	if len(got) != 2 || got[0] != "2026-04-01" || got[1] != "2026-04-05" {
		t.Errorf("LoggedDates = %v, want [2026-04-01 2026-04-05]", got)
	}
}

// TestForExerciseAggregates verifies daily max weight and summed reps, with per-set detail.
func TestForExerciseAggregates(t *testing.T) {
	d1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 3, 8, 0, 0, 0, time.UTC)
	detailed := exercise("Pull-ups", d2, 0, 0, nil)
	detailed.SetsData = []models.SetEntry{
		{Reps: 5, Weight: models.Some(30.0)},
		{Reps: 3, Weight: models.Some(40.0)},
	}
	exercises := []models.Exercise{
		exercise("Pull-ups", d1, 3, 5, f(20)),
		exercise("Pull-ups", d1.Add(time.Hour), 1, 5, f(25)),
		detailed,
		exercise("Boulder", d2, 0, 0, nil),
	}

	p := ForExercise(exercises, "Pull-ups", units.Lbs, time.UTC)
	if len(p.Weight) != 2 || p.Weight[0].Value != 25 || p.Weight[1].Value != 40 {
		t.Errorf("Weight = %+v", p.Weight)
	}
	if len(p.Reps) != 2 || p.Reps[0].Value != 20 || p.Reps[1].Value != 8 {
		t.Errorf("Reps = %+v", p.Reps)
	}

	all := ExercisesProgress(exercises, units.Lbs, time.UTC)
	if len(all) != 1 || all[0].Name != "Pull-ups" {
		t.Errorf("ExercisesProgress = %+v, want only Pull-ups", all)
	}
}

// TestForExerciseKg verifies exercise weights are converted for display.
func TestForExerciseKg(t *testing.T) {
	d1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	exercises := []models.Exercise{
		exercise("Pull-ups", d1, 3, 5, f(22.0462)),
		exercise("Pull-ups", d1.AddDate(0, 0, 1), 3, 5, f(44.0924)),
	}
	p := ForExercise(exercises, "Pull-ups", units.Kg, time.UTC)
	if len(p.Weight) != 2 || p.Weight[0].Value != 10 || p.Weight[1].Value != 20 {
		t.Errorf("Weight = %+v, want 10 and 20 kg", p.Weight)
	}
}
