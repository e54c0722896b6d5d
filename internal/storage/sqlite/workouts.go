package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
)

const workoutColumns = `id, name, exercises, created_at`

// SaveWorkout stores a named list of exercises.
func (d *DB) SaveWorkout(ctx context.Context, name string, exercises []string) (models.Workout, error) {
	if err := storage.CheckWorkout(name, exercises); err != nil {
		return models.Workout{}, err
	}
	names := make([]string, len(exercises))
	for i, ex := range exercises {
		names[i] = strings.TrimSpace(ex)
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return models.Workout{}, fmt.Errorf("encoding exercises: %w", err)
	}

	row := d.db.QueryRowContext(ctx,
		`INSERT INTO workouts (name, exercises) VALUES (?, ?) RETURNING `+workoutColumns,
		strings.TrimSpace(name), string(encoded))
	w, err := scanWorkout(row)
	if err != nil {
		return models.Workout{}, storage.Failure("inserting workout", err)
	}
	return w, nil
}

// ListWorkouts returns all workouts, newest first.
func (d *DB) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	rows, err := d.db.QueryContext(ctx,
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
func (d *DB) GetWorkout(ctx context.Context, id int64) (models.Workout, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workout{}, fmt.Errorf("workout %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Workout{}, storage.Failure("querying workout", err)
	}
	return w, nil
}

// DeleteWorkout removes a workout.
func (d *DB) DeleteWorkout(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return storage.Failure("deleting workout", err)
	}
	return checkDeleted(res, "workout", id)
}

func scanWorkout(row rowScanner) (models.Workout, error) {
	var w models.Workout
	var exercises string
	var createdAt int64
	if err := row.Scan(&w.ID, &w.Name, &exercises, &createdAt); err != nil {
		return models.Workout{}, err
	}
	if err := json.Unmarshal([]byte(exercises), &w.Exercises); err != nil {
		return models.Workout{}, fmt.Errorf("decoding exercises for workout %d: %w", w.ID, err)
	}
	w.CreatedAt = time.UnixMilli(createdAt).UTC()
	return w, nil
}
