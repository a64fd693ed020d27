package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

const scanColumns = `id, user_id, page_url, scan_type, status, match_found, match_score, created_at`

// Save inserts one ScanRecord (immutable, plain insert).
func (r *ScanRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	const q = `
INSERT INTO scan_records
(id, user_id, page_url, scan_type, status, match_found, match_score, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	created := rec.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, stringOrDash(rec.UserID), rec.PageURL, stringOrDash(string(rec.ScanType)),
		stringOrDash(string(rec.Status)), rec.MatchFound, nullFloat(rec.MatchScore), created,
	)
	return err
}

// Get by ID + user
func (r *ScanRepository) Get(ctx context.Context, userID string, id domain.ScanID) (*domain.ScanRecord, error) {
	q := `SELECT ` + scanColumns + ` FROM scan_records WHERE user_id=$1 AND id=$2 LIMIT 1;`
	var rec domain.ScanRecord
	var score sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, q, userID, id).Scan(
		&rec.ID, &rec.UserID, &rec.PageURL, &rec.ScanType,
		&rec.Status, &rec.MatchFound, &score, &rec.Timestamp,
	); err != nil {
		return nil, err
	}
	if score.Valid {
		v := score.Float64
		rec.MatchScore = &v
	}
	return &rec, nil
}

// ListForUser returns a user's records newest-first with optional
// type/outcome filters; Limit <= 0 means no limit.
func (r *ScanRepository) ListForUser(ctx context.Context, userID string, f domain.HistoryFilter) ([]*domain.ScanRecord, error) {
	q := `SELECT ` + scanColumns + ` FROM scan_records WHERE user_id=$1`
	args := []interface{}{userID}

	if f.Type != "" {
		args = append(args, string(f.Type))
		q += fmt.Sprintf(" AND scan_type = $%d", len(args))
	}
	switch f.Outcome {
	case domain.OutcomeFound:
		q += " AND match_found"
	case domain.OutcomeClean:
		q += " AND NOT match_found"
	}

	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scan records: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScanRecord
	for rows.Next() {
		var rec domain.ScanRecord
		var score sql.NullFloat64
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.PageURL, &rec.ScanType,
			&rec.Status, &rec.MatchFound, &score, &rec.Timestamp,
		); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			rec.MatchScore = &v
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Summary counts scans, matches and failures since N days
func (r *ScanRepository) Summary(ctx context.Context, userID string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN match_found THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
FROM scan_records
WHERE user_id=$1 AND created_at >= $2;`

	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, userID, cut).Scan(&s.TotalScans, &s.Matches, &s.Failed); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
