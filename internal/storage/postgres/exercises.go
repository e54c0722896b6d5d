package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/jackc/pgx/v5"
)

const exerciseColumns = `id, name, sets, reps, weight_lbs, sets_data, grade, notes, created_at`

// SaveExercise appends an exercise log entry.
func (db *DB) SaveExercise(ctx context.Context, e models.Exercise) (models.Exercise, error) {
	if err := storage.CheckExercise(e); err != nil {
		return models.Exercise{}, err
	}

	var setsData []byte
	if len(e.SetsData) > 0 {
		b, err := json.Marshal(e.SetsData)
		if err != nil {
			return models.Exercise{}, fmt.Errorf("%w: encoding sets: %w", storage.ErrInvalidRecord, err)
		}
		setsData = b
	}
	var createdAt any
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt
	}

	row := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (name, sets, reps, weight_lbs, sets_data, grade, notes, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7, COALESCE($8::timestamptz, NOW()))
		 RETURNING `+exerciseColumns,
		strings.TrimSpace(e.Name), e.Sets, e.Reps, e.Weight.Ptr(), setsData,
		strings.TrimSpace(e.Grade), strings.TrimSpace(e.Notes), createdAt)
	saved, err := scanExercise(row)
	if err != nil {
		return models.Exercise{}, storage.Failure("inserting exercise", err)
	}
	return saved, nil
}

// ListExercises returns exercises newest first.
func (db *DB) ListExercises(ctx context.Context, f models.ExerciseFilter) ([]models.Exercise, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Name != "" {
		where = append(where, "name = "+arg(f.Name))
	}
	start, end, ok, err := f.DayRange()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	if ok {
		where = append(where, "created_at >= "+arg(start), "created_at < "+arg(end))
	}

	query := `SELECT ` + exerciseColumns + ` FROM exercises`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storage.Failure("querying exercises", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, storage.Failure("scanning exercise", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Failure("iterating exercises", err)
	}
	return result, nil
}

// GetExercise returns one exercise by ID.
func (db *DB) GetExercise(ctx context.Context, id int64) (models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Exercise{}, fmt.Errorf("exercise %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Exercise{}, storage.Failure("querying exercise", err)
	}
	return e, nil
}

// DeleteExercise removes an exercise entry.
func (db *DB) DeleteExercise(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return storage.Failure("deleting exercise", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("exercise %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanExercise(row pgx.Row) (models.Exercise, error) {
	var e models.Exercise
	var weight *float64
	var setsData []byte
	if err := row.Scan(&e.ID, &e.Name, &e.Sets, &e.Reps, &weight, &setsData,
		&e.Grade, &e.Notes, &e.CreatedAt); err != nil {
		return models.Exercise{}, err
	}
	if len(setsData) > 0 {
		if err := json.Unmarshal(setsData, &e.SetsData); err != nil {
			return models.Exercise{}, fmt.Errorf("decoding sets for exercise %d: %w", e.ID, err)
		}
	}
	e.Weight = models.OptionalFromPtr(weight)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
