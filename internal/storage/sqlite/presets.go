package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
)

const presetColumns = `id, name, sets, reps, work_time, rep_rest, set_rest, weight_lbs, edge_mm, created_at`

const insertPreset = `INSERT INTO timer_presets (name, sets, reps, work_time, rep_rest, set_rest, weight_lbs, edge_mm)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING ` + presetColumns

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SavePreset stores a named configuration. Names need not be unique.
func (d *DB) SavePreset(ctx context.Context, name string, cfg models.TimerConfig) (models.Preset, error) {
	if err := storage.CheckPreset(name, cfg); err != nil {
		return models.Preset{}, err
	}
	return savePreset(ctx, d.db, name, cfg)
}

func savePreset(ctx context.Context, q queryRower, name string, cfg models.TimerConfig) (models.Preset, error) {
	row := q.QueryRowContext(ctx, insertPreset,
		name, cfg.Sets, cfg.Reps, cfg.WorkTime, cfg.RepRest, cfg.SetRest, cfg.Weight.Ptr(), cfg.Edge.Ptr())
	p, err := scanPreset(row)
	if err != nil {
		return models.Preset{}, storage.Failure("inserting preset", err)
	}
	return p, nil
}

// ListPresets returns all presets, newest first.
func (d *DB) ListPresets(ctx context.Context) ([]models.Preset, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+presetColumns+` FROM timer_presets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storage.Failure("querying presets", err)
	}
	defer rows.Close()

	var result []models.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, storage.Failure("scanning preset", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Failure("iterating presets", err)
	}
	return result, nil
}

// GetPreset returns one preset by ID.
func (d *DB) GetPreset(ctx context.Context, id int64) (models.Preset, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+presetColumns+` FROM timer_presets WHERE id = ?`, id)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Preset{}, fmt.Errorf("preset %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Preset{}, storage.Failure("querying preset", err)
	}
	return p, nil
}

// ReplacePreset deletes a preset and inserts its replacement atomically.
func (d *DB) ReplacePreset(ctx context.Context, id int64, name string, cfg models.TimerConfig) (models.Preset, error) {
	if err := storage.CheckPreset(name, cfg); err != nil {
		return models.Preset{}, err
	}

	var replaced models.Preset
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM timer_presets WHERE id = ?`, id)
		if err != nil {
			return storage.Failure("deleting preset", err)
		}
		if err := checkDeleted(res, "preset", id); err != nil {
			return err
		}
		replaced, err = savePreset(ctx, tx, name, cfg)
		return err
	})
	if err != nil {
		return models.Preset{}, err
	}
	return replaced, nil
}

// DeletePreset removes a preset. Sessions recorded from it are kept.
func (d *DB) DeletePreset(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM timer_presets WHERE id = ?`, id)
	if err != nil {
		return storage.Failure("deleting preset", err)
	}
	return checkDeleted(res, "preset", id)
}

func scanPreset(row rowScanner) (models.Preset, error) {
	var p models.Preset
	var weight, edge *float64
	var createdAt int64
	if err := row.Scan(&p.ID, &p.Name, &p.Config.Sets, &p.Config.Reps, &p.Config.WorkTime,
		&p.Config.RepRest, &p.Config.SetRest, &weight, &edge, &createdAt); err != nil {
		return models.Preset{}, err
	}
	p.Config.Weight = models.OptionalFromPtr(weight)
	p.Config.Edge = models.OptionalFromPtr(edge)
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return p, nil
}
