package sqlite

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

// Save inserts one ScanRecord (immutable, plain insert).
func (r *ScanRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	const q = `
INSERT INTO scan_records
(id, user_id, page_url, scan_type, status, match_found, match_score, created_at)
VALUES (?,?,?,?,?,?,?,?);`

	created := rec.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	var score interface{}
	if rec.MatchScore != nil {
		score = *rec.MatchScore
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.UserID, rec.PageURL, string(rec.ScanType),
		string(rec.Status), rec.MatchFound, score,
		created.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Get by ID + user
func (r *ScanRepository) Get(ctx context.Context, userID string, id domain.ScanID) (*domain.ScanRecord, error) {
	q := `SELECT ` + scanColumns + ` FROM scan_records WHERE user_id=? AND id=? LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, userID, id)

	rec, err := scanRecordFrom(row.Scan)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListForUser returns a user's records newest-first with optional
// type/outcome filters; Limit <= 0 means no limit.
func (r *ScanRepository) ListForUser(ctx context.Context, userID string, f domain.HistoryFilter) ([]*domain.ScanRecord, error) {
	q := `SELECT ` + scanColumns + ` FROM scan_records WHERE user_id=?`
	args := []interface{}{userID}

	if f.Type != "" {
		q += " AND scan_type = ?"
		args = append(args, string(f.Type))
	}
	switch f.Outcome {
	case domain.OutcomeFound:
		q += " AND match_found = 1"
	case domain.OutcomeClean:
		q += " AND match_found = 0"
	}

	q += " ORDER BY created_at DESC, rowid DESC"
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
		rec, err := scanRecordFrom(rows.Scan)
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
	cut := time.Now().AddDate(0, 0, -sinceDays).UTC().Format(time.RFC3339Nano)

	const q = `
SELECT COUNT(*),
       COALESCE(SUM(match_found), 0),
       COALESCE(SUM(status = 'failed'), 0)
FROM scan_records
WHERE user_id=? AND created_at >= ?;`

	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, userID, cut).Scan(&s.TotalScans, &s.Matches, &s.Failed); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

func scanRecordFrom(scan func(dest ...interface{}) error) (*domain.ScanRecord, error) {
	var rec domain.ScanRecord
	var score sql.NullFloat64
	var created string
	if err := scan(
		&rec.ID, &rec.UserID, &rec.PageURL, &rec.ScanType,
		&rec.Status, &rec.MatchFound, &score, &created,
	); err != nil {
		return nil, err
	}
	if score.Valid {
		v := score.Float64
		rec.MatchScore = &v
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.Timestamp = t
	return &rec, nil
}
