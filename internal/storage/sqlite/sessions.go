package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/google/uuid"
)

const sessionColumns = `id, run_id, preset_name, sets, reps, work_time, rep_rest, set_rest,
	weight_lbs, edge_mm, duration_seconds, completed_at`

// SaveSession inserts a completed run. Saving the same RunID twice returns
// the stored record instead of a duplicate.
func (d *DB) SaveSession(ctx context.Context, s models.Session) (models.Session, error) {
	if err := storage.CheckSession(s); err != nil {
		return models.Session{}, err
	}
	if s.RunID == uuid.Nil {
		s.RunID = uuid.New()
	}

	var completedAt *int64
	if !s.CompletedAt.IsZero() {
		ms := s.CompletedAt.UnixMilli()
		completedAt = &ms
	}

	c := s.Config
	row := d.db.QueryRowContext(ctx,
		`INSERT INTO hangboard_sessions (run_id, preset_name, sets, reps, work_time, rep_rest, set_rest,
		 weight_lbs, edge_mm, duration_seconds, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, `+nowMillis+`))
		 ON CONFLICT (run_id) DO NOTHING
		 RETURNING `+sessionColumns,
		s.RunID.String(), s.PresetName, c.Sets, c.Reps, c.WorkTime, c.RepRest, c.SetRest,
		c.Weight.Ptr(), c.Edge.Ptr(), s.DurationSeconds, completedAt)

	saved, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d.sessionByRunID(ctx, s.RunID)
	}
	if err != nil {
		return models.Session{}, storage.Failure("inserting session", err)
	}
	return saved, nil
}

func (d *DB) sessionByRunID(ctx context.Context, runID uuid.UUID) (models.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM hangboard_sessions WHERE run_id = ?`, runID.String())
	s, err := scanSession(row)
	if err != nil {
		return models.Session{}, storage.Failure("querying session by run id", err)
	}
	return s, nil
}

// ListSessions returns sessions newest first, optionally filtered by preset
// name and calendar date.
func (d *DB) ListSessions(ctx context.Context, f models.SessionFilter) ([]models.Session, error) {
	var where []string
	var args []any

	if f.PresetName != "" {
		where = append(where, "preset_name = ?")
		args = append(args, f.PresetName)
	}
	start, end, ok, err := f.DayRange()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	if ok {
		where = append(where, "completed_at >= ? AND completed_at < ?")
		args = append(args, start.UnixMilli(), end.UnixMilli())
	}

	query := `SELECT ` + sessionColumns + ` FROM hangboard_sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY completed_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Failure("querying sessions", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, storage.Failure("scanning session", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Failure("iterating sessions", err)
	}
	return result, nil
}

// GetSession returns one session by ID.
func (d *DB) GetSession(ctx context.Context, id int64) (models.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM hangboard_sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, storage.Failure("querying session", err)
	}
	return s, nil
}

// DeleteSession removes a session.
func (d *DB) DeleteSession(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM hangboard_sessions WHERE id = ?`, id)
	if err != nil {
		return storage.Failure("deleting session", err)
	}
	return checkDeleted(res, "session", id)
}

func scanSession(row rowScanner) (models.Session, error) {
	var s models.Session
	var runID string
	var weight, edge *float64
	var completedAt int64
	err := row.Scan(&s.ID, &runID, &s.PresetName,
		&s.Config.Sets, &s.Config.Reps, &s.Config.WorkTime, &s.Config.RepRest, &s.Config.SetRest,
		&weight, &edge, &s.DurationSeconds, &completedAt)
	if err != nil {
		return models.Session{}, err
	}
	s.RunID, err = uuid.Parse(runID)
	if err != nil {
		return models.Session{}, fmt.Errorf("parsing run id %q: %w", runID, err)
	}
	s.Config.Weight = models.OptionalFromPtr(weight)
	s.Config.Edge = models.OptionalFromPtr(edge)
	s.CompletedAt = time.UnixMilli(completedAt).UTC()
	return s, nil
}
