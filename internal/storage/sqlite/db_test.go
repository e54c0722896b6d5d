package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "betalog.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSession(name string, at time.Time) models.Session {
	cfg := models.DefaultTimerConfig()
	cfg.Weight = models.Some(25.0)
	return models.Session{
		RunID:           uuid.New(),
		PresetName:      name,
		Config:          cfg,
		DurationSeconds: cfg.TotalSeconds(),
		CompletedAt:     at,
	}
}

// TestMigrationsIdempotent verifies opening an already-migrated file succeeds.
func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betalog.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

// TestSaveSessionRoundTrip verifies every field survives storage,
// including absent optionals.
func TestSaveSessionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	in := testSession("Max Hangs", at)
	saved, err := db.SaveSession(ctx, in)
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := db.GetSession(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.RunID != in.RunID {
		t.Errorf("RunID = %s, want %s", got.RunID, in.RunID)
	}
	if got.PresetName != "Max Hangs" {
		t.Errorf("PresetName = %q, want %q", got.PresetName, "Max Hangs")
	}
	if got.Config != in.Config {
		t.Errorf("Config = %+v, want %+v", got.Config, in.Config)
	}
	if got.Config.Edge.IsSet() {
		t.Error("expected edge to stay absent")
	}
	if got.DurationSeconds != in.DurationSeconds {
		t.Errorf("DurationSeconds = %d, want %d", got.DurationSeconds, in.DurationSeconds)
	}
	if !got.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, at)
	}
}

// TestSaveSessionSameRunID verifies a retried save does not create a duplicate.
func TestSaveSessionSameRunID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	in := testSession("Custom", time.Now())
	first, err := db.SaveSession(ctx, in)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := db.SaveSession(ctx, in)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("IDs differ: %d vs %d", first.ID, second.ID)
	}

	all, err := db.ListSessions(ctx, models.SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d sessions, want 1", len(all))
	}
}

// TestSaveSessionDefaultsCompletedAt verifies the store stamps the time when none is given.
func TestSaveSessionDefaultsCompletedAt(t *testing.T) {
	db := openTestDB(t)
	before := time.Now().Add(-time.Second)

	s, err := db.SaveSession(context.Background(), testSession("Custom", time.Time{}))
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if s.CompletedAt.Before(before) || s.CompletedAt.After(time.Now().Add(time.Second)) {
		t.Errorf("CompletedAt = %v, expected around now", s.CompletedAt)
	}
}

// TestSaveSessionRejectsInvalid verifies bad records never reach the table.
func TestSaveSessionRejectsInvalid(t *testing.T) {
	db := openTestDB(t)
	s := testSession("", time.Now())
	if _, err := db.SaveSession(context.Background(), s); !errors.Is(err, storage.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

// TestSaveSessionStoreUnavailable verifies a closed store reports ErrStorageFailure.
func TestSaveSessionStoreUnavailable(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := db.SaveSession(context.Background(), testSession("Custom", time.Now()))
	if !errors.Is(err, storage.ErrStorageFailure) {
		t.Errorf("SaveSession on closed store: got %v, want ErrStorageFailure", err)
	}
	if _, err := db.ListSessions(context.Background(), models.SessionFilter{}); !errors.Is(err, storage.ErrStorageFailure) {
		t.Errorf("ListSessions on closed store: got %v, want ErrStorageFailure", err)
	}
}

// TestListSessionsFilters verifies ordering, preset and date filters, and limit.
func TestListSessionsFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	day1 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	for _, s := range []models.Session{
		testSession("Max Hangs", day1),
		testSession("Repeaters", day1.Add(time.Hour)),
		testSession("Max Hangs", day2),
	} {
		if _, err := db.SaveSession(ctx, s); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}

	all, err := db.ListSessions(ctx, models.SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d sessions, want 3", len(all))
	}
	if !all[0].CompletedAt.Equal(day2) {
		t.Errorf("first = %v, want newest %v", all[0].CompletedAt, day2)
	}

	byPreset, err := db.ListSessions(ctx, models.SessionFilter{PresetName: "Max Hangs"})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(byPreset) != 2 {
		t.Errorf("preset filter: got %d, want 2", len(byPreset))
	}

	byDate, err := db.ListSessions(ctx, models.SessionFilter{Date: "2026-05-01", Location: time.UTC})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(byDate) != 2 {
		t.Errorf("date filter: got %d, want 2", len(byDate))
	}

	limited, err := db.ListSessions(ctx, models.SessionFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d, want 1", len(limited))
	}

	if _, err := db.ListSessions(ctx, models.SessionFilter{Date: "05/01/2026"}); !errors.Is(err, storage.ErrInvalidRecord) {
		t.Errorf("bad date: got %v", err)
	}
}

// TestDeleteSession verifies deletion and not-found handling.
func TestDeleteSession(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := db.SaveSession(ctx, testSession("Custom", time.Now()))
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := db.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.GetSession(ctx, s.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSession after delete: got %v", err)
	}
	if err := db.DeleteSession(ctx, s.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

// TestPresetLifecycle verifies save, list, replace and delete.
func TestPresetLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cfg := models.TimerConfig{Sets: 6, Reps: 1, WorkTime: 10, RepRest: 0, SetRest: 180, Edge: models.Some(20.0)}
	p, err := db.SavePreset(ctx, "Max Hangs", cfg)
	if err != nil {
		t.Fatalf("SavePreset: %v", err)
	}
	if p.ID == 0 || p.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt, got %+v", p)
	}

	got, err := db.GetPreset(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if got.Config != cfg {
		t.Errorf("Config = %+v, want %+v", got.Config, cfg)
	}

	cfg.SetRest = 120
	replaced, err := db.ReplacePreset(ctx, p.ID, "Max Hangs v2", cfg)
	if err != nil {
		t.Fatalf("ReplacePreset: %v", err)
	}
	if replaced.ID == p.ID {
		t.Error("expected replacement to get a new ID")
	}
	if _, err := db.GetPreset(ctx, p.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("old preset: got %v", err)
	}

	list, err := db.ListPresets(ctx)
	if err != nil {
		t.Fatalf("ListPresets: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Max Hangs v2" || list[0].Config.SetRest != 120 {
		t.Errorf("ListPresets = %+v", list)
	}

	if err := db.DeletePreset(ctx, replaced.ID); err != nil {
		t.Fatalf("DeletePreset: %v", err)
	}
	if err := db.DeletePreset(ctx, replaced.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

// TestReplacePresetMissing verifies a missing preset is not recreated.
func TestReplacePresetMissing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ReplacePreset(ctx, 999, "Ghost", models.DefaultTimerConfig())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := db.ListPresets(ctx)
	if err != nil {
		t.Fatalf("ListPresets: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d presets, want 0", len(list))
	}
}

// TestSettings verifies upsert and missing-key behavior.
func TestSettings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.GetSetting(ctx, models.SettingWeightUnit); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := db.SetSetting(ctx, models.SettingWeightUnit, "kg"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := db.SetSetting(ctx, models.SettingWeightUnit, "lbs"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	v, ok, err := db.GetSetting(ctx, models.SettingWeightUnit)
	if err != nil || !ok {
		t.Fatalf("GetSetting: ok=%v err=%v", ok, err)
	}
	if v != "lbs" {
		t.Errorf("value = %q, want %q", v, "lbs")
	}
}

type fakeResult struct {
	n   int64
	err error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, r.err }

// TestCheckDeleted verifies an unreadable row count is a failure, not a success.
func TestCheckDeleted(t *testing.T) {
	if err := checkDeleted(fakeResult{n: 1}, "session", 1); err != nil {
		t.Errorf("one row: got %v", err)
	}
	if err := checkDeleted(fakeResult{}, "session", 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("no rows: got %v, want ErrNotFound", err)
	}
	err := checkDeleted(fakeResult{err: errors.New("driver does not support RowsAffected")}, "session", 1)
	if !errors.Is(err, storage.ErrStorageFailure) {
		t.Errorf("count error: got %v, want ErrStorageFailure", err)
	}
}
