package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/jackc/pgx/v5"
)

const workoutColumns = `id, name, exercises, created_at`

// SaveWorkout stores a named list of exercises.
func (db *DB) SaveWorkout(ctx context.Context, name string, exercises []string) (models.Workout, error) {
	if err := storage.CheckWorkout(name, exercises); err != nil {
		return models.Workout{}, err
	}
	names := make([]string, len(exercises))
	for i, ex := range exercises {
		names[i] = strings.TrimSpace(ex)
	}

	w, err := scanWorkout(db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (name, exercises) VALUES ($1, $2) RETURNING `+workoutColumns,
		strings.TrimSpace(name), names))
	if err != nil {
		return models.Workout{}, storage.Failure("inserting workout", err)
	}
	return w, nil
}

// ListWorkouts returns all workouts, newest first.
func (db *DB) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storage.Failure("querying workouts", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, storage.Failure("scanning workout", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Failure("iterating workouts", err)
	}
	return result, nil
}

// GetWorkout returns one workout by ID.
func (db *DB) GetWorkout(ctx context.Context, id int64) (models.Workout, error) {
	w, err := scanWorkout(db.Pool.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Workout{}, fmt.Errorf("workout %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Workout{}, storage.Failure("querying workout", err)
	}
	return w, nil
}

// DeleteWorkout removes a workout.
func (db *DB) DeleteWorkout(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
	if err != nil {
		return storage.Failure("deleting workout", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanWorkout(row pgx.Row) (models.Workout, error) {
	var w models.Workout
	if err := row.Scan(&w.ID, &w.Name, &w.Exercises, &w.CreatedAt); err != nil {
		return models.Workout{}, err
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}
