package scans

import (
	"time"
)

// ID type for ScanRecord
type ScanID string

// ScanType enum
type ScanType string

const (
	TypeText  ScanType = "text"
	TypeAudio ScanType = "audio"
	TypeVideo ScanType = "video"
	// TypeImage is accepted on the wire and audited, but never processed.
	TypeImage ScanType = "image"
)

// Status enum
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome filter values for history queries.
type Outcome string

const (
	OutcomeAny   Outcome = ""
	OutcomeFound Outcome = "found"
	OutcomeClean Outcome = "clean"
)

// MatchOutcome value object: the decision produced by one evaluation.
// MatchFound always equals round(MatchScore*100) >= ThresholdUsed.
type MatchOutcome struct {
	MatchFound    bool    `json:"matchFound"`
	MatchScore    float64 `json:"matchScore"`
	ResultMessage string  `json:"resultMessage"`
	ThresholdUsed int     `json:"thresholdUsed"`
	Transcript    string  `json:"transcript,omitempty"`
}

// Aggregate Root: ScanRecord. Written exactly once per scan attempt and
// never mutated afterwards; history is read-only.
type ScanRecord struct {
	ID         ScanID    `json:"id"`
	UserID     string    `json:"user_id"`
	PageURL    string    `json:"page_url"`
	ScanType   ScanType  `json:"scan_type"`
	Status     Status    `json:"status"`
	MatchFound bool      `json:"match_found"`
	MatchScore *float64  `json:"match_score,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary rolls up a user's scans over a window, for dashboard cards.
type Summary struct {
	TotalScans int `json:"total_scans"`
	Matches    int `json:"matches"`
	Failed     int `json:"failed"`
}
