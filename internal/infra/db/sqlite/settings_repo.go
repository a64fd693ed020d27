package sqlite

import (
	"context"
	"database/sql"
	"strconv"
)

const matchThresholdKey = "match_threshold"

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository { return &SettingsRepository{db: db} }

func (r *SettingsRepository) GetMatchThreshold(ctx context.Context) (int, error) {
	const q = `SELECT value FROM app_settings WHERE name = ? LIMIT 1;`
	var raw string
	if err := r.db.QueryRowContext(ctx, q, matchThresholdKey).Scan(&raw); err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func (r *SettingsRepository) SetMatchThreshold(ctx context.Context, pct int) error {
	const q = `
INSERT INTO app_settings (name, value) VALUES (?,?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value;`
	_, err := r.db.ExecContext(ctx, q, matchThresholdKey, strconv.Itoa(pct))
	return err
}
