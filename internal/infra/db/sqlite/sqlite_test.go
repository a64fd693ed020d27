package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	scanerrdomain "github.com/creatorshield/scanpipe/internal/domain/scanerrors"
	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func record(id string, kind domain.ScanType, status domain.Status, found bool, score *float64, at time.Time) *domain.ScanRecord {
	return &domain.ScanRecord{
		ID:         domain.ScanID(id),
		UserID:     "u1",
		PageURL:    "https://pirate.example.com/page",
		ScanType:   kind,
		Status:     status,
		MatchFound: found,
		MatchScore: score,
		Timestamp:  at,
	}
}

func fptr(v float64) *float64 { return &v }

func TestScanRepositorySaveAndGet(t *testing.T) {
	repo := NewScanRepository(openTestDB(t))
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, record("scan-1-audio", domain.TypeAudio, domain.StatusCompleted, true, fptr(1.0), at)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "scan-1-audio")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ScanType != domain.TypeAudio || got.Status != domain.StatusCompleted || !got.MatchFound {
		t.Fatalf("record = %+v", got)
	}
	if got.MatchScore == nil || *got.MatchScore != 1.0 {
		t.Fatalf("MatchScore = %v", got.MatchScore)
	}
	if !got.Timestamp.Equal(at) {
		t.Fatalf("Timestamp = %v, want %v", got.Timestamp, at)
	}
}

func TestScanRepositoryGetWrongUser(t *testing.T) {
	repo := NewScanRepository(openTestDB(t))
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, record("scan-1-audio", domain.TypeAudio, domain.StatusCompleted, false, fptr(0), at)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := repo.Get(ctx, "someone-else", "scan-1-audio"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Get for another user: err = %v, want sql.ErrNoRows", err)
	}
}

func TestScanRepositoryFailedRecordKeepsNullScore(t *testing.T) {
	repo := NewScanRepository(openTestDB(t))
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, record("scan-f-video", domain.TypeVideo, domain.StatusFailed, false, nil, at)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "scan-f-video")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusFailed || got.MatchScore != nil {
		t.Fatalf("record = %+v, score = %v", got, got.MatchScore)
	}
}

func TestScanRepositoryListFiltersAndOrder(t *testing.T) {
	repo := NewScanRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	seed := []*domain.ScanRecord{
		record("s1-audio", domain.TypeAudio, domain.StatusCompleted, true, fptr(1.0), base),
		record("s2-text", domain.TypeText, domain.StatusCompleted, false, fptr(0), base.Add(time.Minute)),
		record("s3-audio", domain.TypeAudio, domain.StatusCompleted, false, fptr(0), base.Add(2*time.Minute)),
		record("s4-audio", domain.TypeAudio, domain.StatusCompleted, true, fptr(0.9), base.Add(3*time.Minute)),
		record("s5-video", domain.TypeVideo, domain.StatusFailed, false, nil, base.Add(4*time.Minute)),
	}
	for _, rec := range seed {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s): %v", rec.ID, err)
		}
	}

	all, err := repo.ListForUser(ctx, "u1", domain.HistoryFilter{})
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d records, want 5", len(all))
	}
	if all[0].ID != "s5-video" || all[4].ID != "s1-audio" {
		t.Fatalf("order = %s .. %s, want newest first", all[0].ID, all[4].ID)
	}

	// type=audio&outcome=found
	matched, err := repo.ListForUser(ctx, "u1", domain.HistoryFilter{
		Type:    domain.TypeAudio,
		Outcome: domain.OutcomeFound,
	})
	if err != nil {
		t.Fatalf("ListForUser filtered: %v", err)
	}
	if len(matched) != 2 || matched[0].ID != "s4-audio" || matched[1].ID != "s1-audio" {
		t.Fatalf("filtered = %v", ids(matched))
	}

	clean, err := repo.ListForUser(ctx, "u1", domain.HistoryFilter{Outcome: domain.OutcomeClean})
	if err != nil {
		t.Fatalf("ListForUser clean: %v", err)
	}
	if len(clean) != 3 {
		t.Fatalf("clean = %v, want 3 records", ids(clean))
	}

	limited, err := repo.ListForUser(ctx, "u1", domain.HistoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListForUser limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "s5-video" {
		t.Fatalf("limited = %v", ids(limited))
	}

	none, err := repo.ListForUser(ctx, "nobody", domain.HistoryFilter{})
	if err != nil {
		t.Fatalf("ListForUser nobody: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("got %d records for an unknown user", len(none))
	}
}

func TestScanRepositorySummary(t *testing.T) {
	repo := NewScanRepository(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []*domain.ScanRecord{
		record("r1-audio", domain.TypeAudio, domain.StatusCompleted, true, fptr(1.0), now.Add(-time.Hour)),
		record("r2-text", domain.TypeText, domain.StatusCompleted, false, fptr(0), now.Add(-2*time.Hour)),
		record("r3-video", domain.TypeVideo, domain.StatusFailed, false, nil, now.Add(-3*time.Hour)),
		record("r4-audio", domain.TypeAudio, domain.StatusCompleted, true, fptr(0.95), now.AddDate(0, 0, -30)),
	}
	for _, rec := range seed {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s): %v", rec.ID, err)
		}
	}

	s, err := repo.Summary(ctx, "u1", 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.TotalScans != 3 || s.Matches != 1 || s.Failed != 1 {
		t.Fatalf("summary = %+v, want 3 total / 1 match / 1 failed", s)
	}
}

func TestSettingsRepositoryRoundTrip(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetMatchThreshold(ctx); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("unset threshold: err = %v, want sql.ErrNoRows", err)
	}

	if err := repo.SetMatchThreshold(ctx, 70); err != nil {
		t.Fatalf("SetMatchThreshold: %v", err)
	}
	if got, err := repo.GetMatchThreshold(ctx); err != nil || got != 70 {
		t.Fatalf("GetMatchThreshold = %d, %v", got, err)
	}

	// Upsert path
	if err := repo.SetMatchThreshold(ctx, 95); err != nil {
		t.Fatalf("SetMatchThreshold again: %v", err)
	}
	if got, err := repo.GetMatchThreshold(ctx); err != nil || got != 95 {
		t.Fatalf("GetMatchThreshold after upsert = %d, %v", got, err)
	}
}

func TestScanErrorRepository(t *testing.T) {
	repo := NewScanErrorRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []*scanerrdomain.ScanError{
		{UserID: "u1", ScanID: "s1-audio", ScanType: "audio", Phase: "stage", Message: "decoding payload", CreatedAt: base},
		{UserID: "u1", ScanID: "s1-audio", ScanType: "audio", Phase: "extract", Message: "codec not found", CreatedAt: base.Add(time.Second)},
		{UserID: "u1", ScanID: "other", ScanType: "video", Phase: "extract", Message: "unrelated", CreatedAt: base},
	}
	for _, e := range entries {
		if err := repo.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := repo.ListByScan(ctx, "u1", "s1-audio", 0)
	if err != nil {
		t.Fatalf("ListByScan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Phase != "extract" || got[1].Phase != "stage" {
		t.Fatalf("order = %s, %s, want newest first", got[0].Phase, got[1].Phase)
	}
	if got[0].Message != "codec not found" {
		t.Fatalf("message = %q", got[0].Message)
	}
}

func ids(recs []*domain.ScanRecord) []domain.ScanID {
	out := make([]domain.ScanID, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
