package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/creatorshield/scanpipe/internal/domain/scanerrors"
)

type ScanErrorRepository struct {
	db *sql.DB
}

func NewScanErrorRepository(db *sql.DB) *ScanErrorRepository { return &ScanErrorRepository{db: db} }

func (r *ScanErrorRepository) Save(ctx context.Context, e *domain.ScanError) error {
	const q = `
INSERT INTO scan_errors
  (user_id, scan_id, scan_type, phase, message, created_at)
VALUES (?,?,?,?,?,?);`

	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.UserID, e.ScanID, e.ScanType, e.Phase, msg,
		created.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (r *ScanErrorRepository) ListByScan(ctx context.Context, userID string, scanID string, limit int) ([]*domain.ScanError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, scan_id, scan_type, phase, message, created_at
FROM scan_errors
WHERE user_id = ? AND scan_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, userID, scanID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ScanError
	for rows.Next() {
		var e domain.ScanError
		var created string
		if err := rows.Scan(&e.ID, &e.UserID, &e.ScanID, &e.ScanType, &e.Phase, &e.Message, &created); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		e.CreatedAt = t
		out = append(out, &e)
	}
	return out, rows.Err()
}
