// Package storage defines the persistence contract for timer sessions,
// presets, exercises, workouts and settings. Implementations live in the sqlite and postgres
// subpackages; internal/client provides one backed by a remote server.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/betalog/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrStorageFailure wraps any failure of the underlying store. Callers
	// may retry operations that fail with it.
	ErrStorageFailure = errors.New("storage: failure")
	// ErrInvalidRecord is returned when a record is rejected before it is written.
	ErrInvalidRecord = errors.New("storage: invalid record")
)

// SessionRecorder is the part of the store a timer host needs on completion.
type SessionRecorder interface {
	SaveSession(ctx context.Context, s models.Session) (models.Session, error)
}

// Store is the full persistence surface.
type Store interface {
	SessionRecorder

	// ListSessions returns sessions newest first.
	ListSessions(ctx context.Context, f models.SessionFilter) ([]models.Session, error)
	GetSession(ctx context.Context, id int64) (models.Session, error)
	DeleteSession(ctx context.Context, id int64) error

	SavePreset(ctx context.Context, name string, cfg models.TimerConfig) (models.Preset, error)
	ListPresets(ctx context.Context) ([]models.Preset, error)
	GetPreset(ctx context.Context, id int64) (models.Preset, error)
	// ReplacePreset deletes the preset and inserts name/cfg in its place.
	// The replacement gets a new ID and creation time.
	ReplacePreset(ctx context.Context, id int64, name string, cfg models.TimerConfig) (models.Preset, error)
	DeletePreset(ctx context.Context, id int64) error

	// SaveExercise appends an exercise log entry. CreatedAt defaults to now.
	SaveExercise(ctx context.Context, e models.Exercise) (models.Exercise, error)
	// ListExercises returns exercises newest first.
	ListExercises(ctx context.Context, f models.ExerciseFilter) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id int64) (models.Exercise, error)
	DeleteExercise(ctx context.Context, id int64) error

	SaveWorkout(ctx context.Context, name string, exercises []string) (models.Workout, error)
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id int64) (models.Workout, error)
	DeleteWorkout(ctx context.Context, id int64) error

	// GetSetting returns the value for key and whether it was set.
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// Failure wraps a driver error with ErrStorageFailure.
func Failure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

// CheckSession validates a record before insert.
func CheckSession(s models.Session) error {
	if s.PresetName == "" {
		return fmt.Errorf("%w: preset name is required", ErrInvalidRecord)
	}
	if s.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidRecord)
	}
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// CheckPreset validates a preset before insert.
func CheckPreset(name string, cfg models.TimerConfig) error {
	if name == "" {
		return fmt.Errorf("%w: preset name is required", ErrInvalidRecord)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// CheckExercise validates an exercise log entry before insert.
func CheckExercise(e models.Exercise) error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("%w: exercise name is required", ErrInvalidRecord)
	case e.Sets < 0:
		return fmt.Errorf("%w: sets cannot be negative", ErrInvalidRecord)
	case e.Reps < 0:
		return fmt.Errorf("%w: reps cannot be negative", ErrInvalidRecord)
	}
	if w, ok := e.Weight.Get(); ok && w < 0 {
		return fmt.Errorf("%w: weight cannot be negative", ErrInvalidRecord)
	}
	for i, set := range e.SetsData {
		if set.Reps < 0 {
			return fmt.Errorf("%w: set %d: reps cannot be negative", ErrInvalidRecord, i+1)
		}
		if w, ok := set.Weight.Get(); ok && w < 0 {
			return fmt.Errorf("%w: set %d: weight cannot be negative", ErrInvalidRecord, i+1)
		}
	}
	return nil
}

// CheckWorkout validates a workout before insert.
func CheckWorkout(name string, exercises []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: workout name is required", ErrInvalidRecord)
	}
	if len(exercises) == 0 {
		return fmt.Errorf("%w: workout needs at least one exercise", ErrInvalidRecord)
	}
	for i, ex := range exercises {
		if strings.TrimSpace(ex) == "" {
			return fmt.Errorf("%w: exercise %d has no name", ErrInvalidRecord, i+1)
		}
	}
	return nil
}
