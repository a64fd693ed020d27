package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
)

func TestStageWritesKindNamedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	staged, err := s.Stage([]byte("mp3 bytes"), domain.TypeAudio)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	name := filepath.Base(staged.Path())
	if !strings.HasPrefix(name, "audio-") || !strings.HasSuffix(name, ".mp3") {
		t.Fatalf("staged name = %q, want audio-*.mp3", name)
	}
	data, err := os.ReadFile(staged.Path())
	if err != nil {
		t.Fatalf("reading staged file: %v", err)
	}
	if string(data) != "mp3 bytes" {
		t.Fatalf("staged content = %q", data)
	}
}

func TestStageExtensionPerKind(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := map[domain.ScanType]string{
		domain.TypeAudio: ".mp3",
		domain.TypeVideo: ".mp4",
		domain.TypeText:  ".bin",
	}
	for kind, ext := range cases {
		staged, err := s.Stage([]byte("x"), kind)
		if err != nil {
			t.Fatalf("Stage(%s): %v", kind, err)
		}
		if got := filepath.Ext(staged.Path()); got != ext {
			t.Fatalf("Stage(%s) extension = %q, want %q", kind, got, ext)
		}
	}
}

func TestStageRejectsEmptyPayload(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Stage(nil, domain.TypeAudio); err == nil {
		t.Fatal("Stage accepted an empty payload")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	staged, err := s.Stage([]byte("x"), domain.TypeAudio)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	if err := staged.Cleanup(); err != nil {
		t.Fatalf("first Cleanup: %v", err)
	}
	if _, err := os.Stat(staged.Path()); !os.IsNotExist(err) {
		t.Fatal("file still exists after Cleanup")
	}
	if err := staged.Cleanup(); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
}

func TestCleanupAfterExternalRemoval(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	staged, err := s.Stage([]byte("x"), domain.TypeVideo)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// Mirrors the archive-then-remove path of the evidence store.
	if err := os.Remove(staged.Path()); err != nil {
		t.Fatalf("removing underneath the handle: %v", err)
	}
	if err := staged.Cleanup(); err != nil {
		t.Fatalf("Cleanup after external removal: %v", err)
	}
}

func TestCleanStaleRemovesOnlyOldFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	old, err := s.Stage([]byte("crash leftover"), domain.TypeAudio)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	fresh, err := s.Stage([]byte("in flight"), domain.TypeVideo)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old.Path(), stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	removed := s.CleanStale(24 * time.Hour)
	if len(removed) != 1 || removed[0] != old.Path() {
		t.Fatalf("removed = %v, want just %s", removed, old.Path())
	}
	if _, err := os.Stat(fresh.Path()); err != nil {
		t.Fatalf("fresh file was swept: %v", err)
	}
}

func TestCleanStaleMissingDir(t *testing.T) {
	s := &Stager{dir: filepath.Join(t.TempDir(), "never-created")}
	if removed := s.CleanStale(time.Hour); removed != nil {
		t.Fatalf("removed = %v, want nil", removed)
	}
}
