package scans

import (
	"context"
)

// HistoryFilter narrows ListForUser. Zero values mean "no filter";
// Limit <= 0 means unbounded (callers cap display themselves).
type HistoryFilter struct {
	Type    ScanType
	Outcome Outcome
	Limit   int
}

// Repository port (interface for persistence)
type Repository interface {
	Save(ctx context.Context, rec *ScanRecord) error
	Get(ctx context.Context, userID string, id ScanID) (*ScanRecord, error)
	ListForUser(ctx context.Context, userID string, f HistoryFilter) ([]*ScanRecord, error)
	Summary(ctx context.Context, userID string, sinceDays int) (Summary, error)
}

// TextExtractor port: the external text-extraction capability. It builds
// a transcript of the suspect page for comparison with the creator's
// reference text.
type TextExtractor interface {
	ExtractText(ctx context.Context, pageURL, referenceText string) (string, error)
}

// TextEmbedder port: embedding vectors for transcripts, carried on the
// fingerprint for similarity scorers.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MediaAnalyzer port: the external codec/ML analysis capability for
// staged audio and video files. An empty hash (or empty list) means the
// capability found no usable signal and is not an error.
type MediaAnalyzer interface {
	AudioFingerprint(ctx context.Context, localPath string) (string, error)
	VideoFingerprints(ctx context.Context, localPath string) ([]string, error)
}

// StagedMedia is a staged temporary file. Cleanup is idempotent and must
// be called on every exit path of the scan that staged it.
type StagedMedia interface {
	Path() string
	Cleanup() error
}

// MediaStager port: writes an uploaded payload to a scoped temporary
// location for the analyzer to read.
type MediaStager interface {
	Stage(payload []byte, kind ScanType) (StagedMedia, error)
}

// ArtifactStore port (interface for evidence retention). The pipeline
// archives before its own deferred cleanup, so only Upload is required.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
