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

const exerciseColumns = `id, name, sets, reps, weight_lbs, sets_data, grade, notes, created_at`

// SaveExercise appends an exercise log entry.
func (d *DB) SaveExercise(ctx context.Context, e models.Exercise) (models.Exercise, error) {
	if err := storage.CheckExercise(e); err != nil {
		return models.Exercise{}, err
	}

	setsData, err := encodeSets(e.SetsData)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	var createdAt *int64
	if !e.CreatedAt.IsZero() {
		ms := e.CreatedAt.UnixMilli()
		createdAt = &ms
	}

	row := d.db.QueryRowContext(ctx,
		`INSERT INTO exercises (name, sets, reps, weight_lbs, sets_data, grade, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE(?, `+nowMillis+`))
		 RETURNING `+exerciseColumns,
		strings.TrimSpace(e.Name), e.Sets, e.Reps, e.Weight.Ptr(), setsData,
		strings.TrimSpace(e.Grade), strings.TrimSpace(e.Notes), createdAt)
	saved, err := scanExercise(row)
	if err != nil {
		return models.Exercise{}, storage.Failure("inserting exercise", err)
	}
	return saved, nil
}

// ListExercises returns exercises newest first, optionally filtered by name
// and calendar date.
func (d *DB) ListExercises(ctx context.Context, f models.ExerciseFilter) ([]models.Exercise, error) {
	var where []string
	var args []any

	if f.Name != "" {
		where = append(where, "name = ?")
		args = append(args, f.Name)
	}
	start, end, ok, err := f.DayRange()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	if ok {
		where = append(where, "created_at >= ? AND created_at < ?")
		args = append(args, start.UnixMilli(), end.UnixMilli())
	}

	query := `SELECT ` + exerciseColumns + ` FROM exercises`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
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
func (d *DB) GetExercise(ctx context.Context, id int64) (models.Exercise, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	e, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Exercise{}, fmt.Errorf("exercise %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Exercise{}, storage.Failure("querying exercise", err)
	}
	return e, nil
}

// DeleteExercise removes an exercise entry.
func (d *DB) DeleteExercise(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return storage.Failure("deleting exercise", err)
	}
	return checkDeleted(res, "exercise", id)
}

// encodeSets stores per-set detail as a JSON column; nil means none recorded.
func encodeSets(sets []models.SetEntry) (*string, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(sets)
	if err != nil {
		return nil, fmt.Errorf("encoding sets: %w", err)
	}
	s := string(b)
	return &s, nil
}

func scanExercise(row rowScanner) (models.Exercise, error) {
	var e models.Exercise
	var weight *float64
	var setsData *string
	var createdAt int64
	if err := row.Scan(&e.ID, &e.Name, &e.Sets, &e.Reps, &weight, &setsData,
		&e.Grade, &e.Notes, &createdAt); err != nil {
		return models.Exercise{}, err
	}
	if setsData != nil && *setsData != "" {
		if err := json.Unmarshal([]byte(*setsData), &e.SetsData); err != nil {
			return models.Exercise{}, fmt.Errorf("decoding sets for exercise %d: %w", e.ID, err)
		}
	}
	e.Weight = models.OptionalFromPtr(weight)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return e, nil
}
