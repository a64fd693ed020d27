package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

const scanColumns = `id, user_id, page_url, scan_type, status, match_found, match_score, created_at`

// Save inserts one ScanRecord. Records are immutable, so this is a plain
// insert; a duplicate id is a caller bug and surfaces as a driver error.
func (r *ScanRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	const q = `
INSERT INTO scan_records
(id, user_id, page_url, scan_type, status, match_found, match_score, created_at)
VALUES (?,?,?,?,?,?,?,?);
`
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
	q := `SELECT ` + scanColumns + ` FROM scan_records WHERE user_id=? AND id=? LIMIT 1;`
	return scanRow(r.db.QueryRowContext(ctx, q, userID, id))
}

// ListForUser returns a user's records newest-first, optionally filtered
// by scan type and match outcome. Limit <= 0 means no limit.
func (r *ScanRepository) ListForUser(ctx context.Context, userID string, f domain.HistoryFilter) ([]*domain.ScanRecord, error) {
	q := `SELECT ` + scanColumns + ` FROM scan_records WHERE user_id=?`
	args := []interface{}{userID}

	if f.Type != "" {
		q += " AND scan_type = ?"
		args = append(args, string(f.Type))
	}
	switch f.Outcome {
	case domain.OutcomeFound:
		q += " AND match_found = TRUE"
	case domain.OutcomeClean:
		q += " AND match_found = FALSE"
	}

	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scan records: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScanRecord
	for rows.Next() {
		rec, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
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
SELECT COUNT(*) AS total_scans,
       COALESCE(SUM(match_found), 0) AS matches,
       COALESCE(SUM(status = 'failed'), 0) AS failed
FROM scan_records
WHERE user_id=? AND created_at >= ?;
`
	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, userID, cut).Scan(&s.TotalScans, &s.Matches, &s.Failed); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row *sql.Row) (*domain.ScanRecord, error) {
	return scanRecordFrom(row)
}

func scanRows(rows *sql.Rows) (*domain.ScanRecord, error) {
	return scanRecordFrom(rows)
}

func scanRecordFrom(s rowScanner) (*domain.ScanRecord, error) {
	var rec domain.ScanRecord
	var score sql.NullFloat64
	if err := s.Scan(
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

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
