package scans

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/creatorshield/scanpipe/internal/application"
	"github.com/creatorshield/scanpipe/internal/domain/scanerrors"
	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
	"github.com/creatorshield/scanpipe/internal/middleware"
)

// ThresholdResolver provides the acceptance threshold for one scan.
// Resolved once at the start of a scan; never re-read mid-flight.
type ThresholdResolver interface {
	Resolve(ctx context.Context) int
}

// Service implements the scan-execution use cases. Each invocation is an
// independent sequential pipeline: validate, stage, extract, evaluate,
// record. Safe for concurrent use; no state is shared across scans.
type Service struct {
	Repo       domain.Repository
	ErrorLog   scanerrors.Repository // optional
	Text       domain.TextExtractor
	Embed      domain.TextEmbedder // optional, feeds similarity scorers
	Media      domain.MediaAnalyzer
	Stager     domain.MediaStager
	Artifacts  domain.ArtifactStore // optional evidence retention
	Thresholds ThresholdResolver
	Evaluator  *Evaluator
	Clock      application.Clock
}

// Command to execute a scan
type ExecuteScanCommand struct {
	UserID        string
	TargetURL     string
	ContentKind   string
	Payload       []byte // raw bytes from a multipart upload
	PayloadBase64 string // or a base64-encoded blob
	ReferenceText string
}

// ScanResult is the uniform terminal shape returned to every caller.
// Failures never propagate as raw errors; they arrive here with
// Success=false, MatchFound=false and MatchScore=0.
type ScanResult struct {
	Success bool                `json:"success"`
	Data    domain.MatchOutcome `json:"data"`
	Message string              `json:"message"`
}

// ExecuteScan runs the whole pipeline for one request. Exactly one
// ScanRecord is written per invocation, on the success and the failure
// path alike; any staged temp file is removed before this returns. The
// returned error is non-nil only when the record store itself failed.
func (s *Service) ExecuteScan(ctx context.Context, cmd ExecuteScanCommand) (ScanResult, error) {
	now := s.Clock.Now()
	kind := domain.ScanType(strings.ToLower(strings.TrimSpace(cmd.ContentKind)))
	id := domain.ScanID(fmt.Sprintf("%s-%s", uuid.New().String(), kind))
	threshold := s.Thresholds.Resolve(ctx)

	outcome, phase, scanErr := s.run(ctx, cmd, kind, threshold)

	rec := &domain.ScanRecord{
		ID:        id,
		UserID:    cmd.UserID,
		PageURL:   cmd.TargetURL,
		ScanType:  kind,
		Timestamp: now,
	}
	if scanErr != nil {
		rec.Status = domain.StatusFailed
	} else {
		rec.Status = domain.StatusCompleted
		rec.MatchFound = outcome.MatchFound
		score := outcome.MatchScore
		rec.MatchScore = &score
	}

	// Recording is unconditional: the failure branch still persists.
	if err := s.Repo.Save(ctx, rec); err != nil {
		return ScanResult{
			Data:    failureOutcome(threshold, "scan could not be recorded"),
			Message: "scan could not be recorded",
		}, fmt.Errorf("saving scan record: %w", err)
	}

	if scanErr != nil {
		if s.ErrorLog != nil {
			_ = s.ErrorLog.Save(ctx, &scanerrors.ScanError{
				UserID:    cmd.UserID,
				ScanID:    string(id),
				ScanType:  string(kind),
				Phase:     phase,
				Message:   scanErr.Error(),
				CreatedAt: now,
			})
		}
		return ScanResult{
			Data:    failureOutcome(threshold, scanErr.Error()),
			Message: scanErr.Error(),
		}, nil
	}

	return ScanResult{Success: true, Data: outcome, Message: "scan completed"}, nil
}

// run executes validate/stage/extract/evaluate and reports the phase a
// failure happened in. Temp-file cleanup is deferred inside so it runs
// on every exit path, including analyzer errors.
func (s *Service) run(ctx context.Context, cmd ExecuteScanCommand, kind domain.ScanType, threshold int) (domain.MatchOutcome, string, error) {
	if err := s.validate(cmd, kind); err != nil {
		return domain.MatchOutcome{}, "validate", err
	}

	switch kind {
	case domain.TypeText:
		transcript, err := s.Text.ExtractText(ctx, cmd.TargetURL, cmd.ReferenceText)
		if err != nil {
			return domain.MatchOutcome{}, "extract", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}
		fp := domain.Fingerprint{Transcript: strings.TrimSpace(transcript)}
		if s.Embed != nil && fp.Transcript != "" {
			// Best effort: a scorer without a vector falls back to the
			// transcript alone.
			if vec, err := s.Embed.Embed(ctx, fp.Transcript); err == nil {
				fp.Embedding = vec
			}
		}
		return s.Evaluator.Evaluate(kind, fp, threshold), "", nil

	case domain.TypeAudio, domain.TypeVideo:
		payload := cmd.Payload
		if len(payload) == 0 {
			decoded, err := base64.StdEncoding.DecodeString(cmd.PayloadBase64)
			if err != nil {
				return domain.MatchOutcome{}, "stage", fmt.Errorf("%w: decoding payload: %v", domain.ErrStaging, err)
			}
			payload = decoded
		}

		staged, err := s.Stager.Stage(payload, kind)
		if err != nil {
			return domain.MatchOutcome{}, "stage", fmt.Errorf("%w: %v", domain.ErrStaging, err)
		}
		defer staged.Cleanup()

		if s.Artifacts != nil {
			// Evidence retention is best effort; an archive failure must
			// not fail the scan.
			key := fmt.Sprintf("%s/%s/%s", cmd.UserID, kind, filepath.Base(staged.Path()))
			_, _ = s.Artifacts.Upload(ctx, staged.Path(), key)
		}

		var fp domain.Fingerprint
		if kind == domain.TypeAudio {
			hash, err := s.Media.AudioFingerprint(ctx, staged.Path())
			if err != nil {
				return domain.MatchOutcome{}, "extract", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
			}
			fp.AudioHash = hash
		} else {
			hashes, err := s.Media.VideoFingerprints(ctx, staged.Path())
			if err != nil {
				return domain.MatchOutcome{}, "extract", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
			}
			fp.VideoHashes = hashes
		}
		return s.Evaluator.Evaluate(kind, fp, threshold), "", nil

	case domain.TypeImage:
		return domain.MatchOutcome{}, "validate", fmt.Errorf("%w: image scans are not supported", domain.ErrUnsupportedKind)

	default:
		return domain.MatchOutcome{}, "validate", fmt.Errorf("%w: unknown content kind %q", domain.ErrValidation, cmd.ContentKind)
	}
}

func (s *Service) validate(cmd ExecuteScanCommand, kind domain.ScanType) error {
	if err := middleware.ValidateURL(cmd.TargetURL); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if kind == domain.TypeAudio || kind == domain.TypeVideo {
		if len(cmd.Payload) == 0 && strings.TrimSpace(cmd.PayloadBase64) == "" {
			return fmt.Errorf("%w: missing media payload for %s scan", domain.ErrValidation, kind)
		}
	}
	return nil
}

// failureOutcome keeps the outcome invariant intact on the failure path:
// score 0 never clears a threshold in [1,100], so MatchFound stays false.
func failureOutcome(threshold int, msg string) domain.MatchOutcome {
	return domain.MatchOutcome{
		MatchFound:    false,
		MatchScore:    0,
		ResultMessage: msg,
		ThresholdUsed: threshold,
	}
}

// History returns a user's scan records, newest first. Limit 0 means
// unbounded; display callers cap it themselves.
func (s *Service) History(ctx context.Context, userID string, f domain.HistoryFilter) ([]*domain.ScanRecord, error) {
	return s.Repo.ListForUser(ctx, userID, f)
}

// Get fetches one scan record by id
func (s *Service) Get(ctx context.Context, userID string, id domain.ScanID) (*domain.ScanRecord, error) {
	return s.Repo.Get(ctx, userID, id)
}

// Latest returns a user's most recent scan record, or sql.ErrNoRows when
// the user has no scans yet.
func (s *Service) Latest(ctx context.Context, userID string) (*domain.ScanRecord, error) {
	list, err := s.Repo.ListForUser(ctx, userID, domain.HistoryFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	return list[0], nil
}

// Summary aggregates a user's scans over the last N days
func (s *Service) Summary(ctx context.Context, userID string, sinceDays int) (domain.Summary, error) {
	return s.Repo.Summary(ctx, userID, sinceDays)
}
