package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
	"github.com/jackc/pgx/v5"
)

const presetColumns = `id, name, sets, reps, work_time, rep_rest, set_rest, weight_lbs, edge_mm, created_at`

const insertPreset = `INSERT INTO timer_presets (name, sets, reps, work_time, rep_rest, set_rest, weight_lbs, edge_mm)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	RETURNING ` + presetColumns

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SavePreset stores a named configuration.
func (db *DB) SavePreset(ctx context.Context, name string, cfg models.TimerConfig) (models.Preset, error) {
	if err := storage.CheckPreset(name, cfg); err != nil {
		return models.Preset{}, err
	}
	return savePreset(ctx, db.Pool, name, cfg)
}

func savePreset(ctx context.Context, q queryRower, name string, cfg models.TimerConfig) (models.Preset, error) {
	p, err := scanPreset(q.QueryRow(ctx, insertPreset,
		name, cfg.Sets, cfg.Reps, cfg.WorkTime, cfg.RepRest, cfg.SetRest, cfg.Weight.Ptr(), cfg.Edge.Ptr()))
	if err != nil {
		return models.Preset{}, storage.Failure("inserting preset", err)
	}
	return p, nil
}

// ListPresets returns all presets, newest first.
func (db *DB) ListPresets(ctx context.Context) ([]models.Preset, error) {
	rows, err := db.Pool.Query(ctx,
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
func (db *DB) GetPreset(ctx context.Context, id int64) (models.Preset, error) {
	p, err := scanPreset(db.Pool.QueryRow(ctx, `SELECT `+presetColumns+` FROM timer_presets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Preset{}, fmt.Errorf("preset %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Preset{}, storage.Failure("querying preset", err)
	}
	return p, nil
}

// ReplacePreset deletes a preset and inserts its replacement in one transaction.
func (db *DB) ReplacePreset(ctx context.Context, id int64, name string, cfg models.TimerConfig) (models.Preset, error) {
	if err := storage.CheckPreset(name, cfg); err != nil {
		return models.Preset{}, err
	}

	var replaced models.Preset
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM timer_presets WHERE id = $1`, id)
		if err != nil {
			return storage.Failure("deleting preset", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("preset %d: %w", id, storage.ErrNotFound)
		}
		replaced, err = savePreset(ctx, tx, name, cfg)
		return err
	})
	if err != nil {
		return models.Preset{}, err
	}
	return replaced, nil
}

// DeletePreset removes a preset.
func (db *DB) DeletePreset(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM timer_presets WHERE id = $1`, id)
	if err != nil {
		return storage.Failure("deleting preset", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("preset %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanPreset(row pgx.Row) (models.Preset, error) {
	var p models.Preset
	var weight, edge *float64
	if err := row.Scan(&p.ID, &p.Name, &p.Config.Sets, &p.Config.Reps, &p.Config.WorkTime,
		&p.Config.RepRest, &p.Config.SetRest, &weight, &edge, &p.CreatedAt); err != nil {
		return models.Preset{}, err
	}
	p.Config.Weight = models.OptionalFromPtr(weight)
	p.Config.Edge = models.OptionalFromPtr(edge)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
