package scanerrors

import "time"

// ScanError represents a persisted scan failure entry. One row is written
// per failed scan, alongside the failed ScanRecord, so support can see
// why a scan failed without digging through logs.
type ScanError struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	ScanID    string    `json:"scan_id"`
	ScanType  string    `json:"scan_type,omitempty"`
	Phase     string    `json:"phase,omitempty"` // validate | stage | extract | record
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
