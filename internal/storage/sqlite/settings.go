package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/claude/betalog/internal/storage"
)

// GetSetting returns the value stored under key.
func (d *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storage.Failure("querying setting", err)
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return storage.Failure("saving setting", err)
	}
	return nil
}
