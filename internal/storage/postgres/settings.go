package postgres

import (
	"context"
	"errors"

	"github.com/claude/betalog/internal/storage"
	"github.com/jackc/pgx/v5"
)

// GetSetting returns the value stored under key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.Pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storage.Failure("querying setting", err)
	}
	return value, true, nil
}

// SetSetting upserts a setting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return storage.Failure("saving setting", err)
	}
	return nil
}
