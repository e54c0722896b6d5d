package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, run_id::text, preset_name, sets, reps, work_time, rep_rest, set_rest,
	weight_lbs, edge_mm, duration_seconds, completed_at`

// SaveSession inserts a completed run. Saving the same RunID twice returns
// the stored record.
func (db *DB) SaveSession(ctx context.Context, s models.Session) (models.Session, error) {
	if err := storage.CheckSession(s); err != nil {
		return models.Session{}, err
	}
	if s.RunID == uuid.Nil {
		s.RunID = uuid.New()
	}

	var completedAt any
	if !s.CompletedAt.IsZero() {
		completedAt = s.CompletedAt
	}

	c := s.Config
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO hangboard_sessions (run_id, preset_name, sets, reps, work_time, rep_rest, set_rest,
		 weight_lbs, edge_mm, duration_seconds, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, COALESCE($11::timestamptz, NOW()))
		 ON CONFLICT (run_id) DO NOTHING
		 RETURNING `+sessionColumns,
		s.RunID.String(), s.PresetName, c.Sets, c.Reps, c.WorkTime, c.RepRest, c.SetRest,
		c.Weight.Ptr(), c.Edge.Ptr(), s.DurationSeconds, completedAt)

	saved, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		row = db.Pool.QueryRow(ctx,
			`SELECT `+sessionColumns+` FROM hangboard_sessions WHERE run_id = $1`, s.RunID.String())
		saved, err = scanSession(row)
	}
	if err != nil {
		return models.Session{}, storage.Failure("inserting session", err)
	}
	return saved, nil
}

// ListSessions returns sessions newest first.
func (db *DB) ListSessions(ctx context.Context, f models.SessionFilter) ([]models.Session, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PresetName != "" {
		where = append(where, "preset_name = "+arg(f.PresetName))
	}
	start, end, ok, err := f.DayRange()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	if ok {
		where = append(where, "completed_at >= "+arg(start), "completed_at < "+arg(end))
	}

	query := `SELECT ` + sessionColumns + ` FROM hangboard_sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY completed_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
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
func (db *DB) GetSession(ctx context.Context, id int64) (models.Session, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM hangboard_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, storage.Failure("querying session", err)
	}
	return s, nil
}

// DeleteSession removes a session.
func (db *DB) DeleteSession(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM hangboard_sessions WHERE id = $1`, id)
	if err != nil {
		return storage.Failure("deleting session", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	var runID string
	var weight, edge *float64
	err := row.Scan(&s.ID, &runID, &s.PresetName,
		&s.Config.Sets, &s.Config.Reps, &s.Config.WorkTime, &s.Config.RepRest, &s.Config.SetRest,
		&weight, &edge, &s.DurationSeconds, &s.CompletedAt)
	if err != nil {
		return models.Session{}, err
	}
	if s.RunID, err = uuid.Parse(runID); err != nil {
		return models.Session{}, fmt.Errorf("parsing run id %q: %w", runID, err)
	}
	s.Config.Weight = models.OptionalFromPtr(weight)
	s.Config.Edge = models.OptionalFromPtr(edge)
	s.CompletedAt = s.CompletedAt.UTC()
	return s, nil
}
