package scanerrors

import (
	"context"
)

// Repository defines persistence for scan failure entries
type Repository interface {
	Save(ctx context.Context, e *ScanError) error
	ListByScan(ctx context.Context, userID string, scanID string, limit int) ([]*ScanError, error)
}
