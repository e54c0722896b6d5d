package mcp

import (
	"context"

	"github.com/claude/betalog/internal/client"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage/postgres"
	"github.com/claude/betalog/internal/storage/sqlite"
)

// DataSource abstracts the data layer for MCP tools. The local stores and
// client.Client (remote via REST API) all satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, f models.SessionFilter) ([]models.Session, error)
	GetSession(ctx context.Context, id int64) (models.Session, error)
	SavePreset(ctx context.Context, name string, cfg models.TimerConfig) (models.Preset, error)
	ListPresets(ctx context.Context) ([]models.Preset, error)
	GetPreset(ctx context.Context, id int64) (models.Preset, error)
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SaveExercise(ctx context.Context, e models.Exercise) (models.Exercise, error)
	ListExercises(ctx context.Context, f models.ExerciseFilter) ([]models.Exercise, error)
	SaveWorkout(ctx context.Context, name string, exercises []string) (models.Workout, error)
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id int64) (models.Workout, error)
}

// Compile-time checks.
var (
	_ DataSource = (*sqlite.DB)(nil)
	_ DataSource = (*postgres.DB)(nil)
	_ DataSource = (*client.Client)(nil)
)
