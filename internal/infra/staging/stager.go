package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
)

// Stager writes uploaded media payloads to a scoped temporary location
// for the analysis capability to read. Every staged file is removed by
// the scan that created it; a stale sweep covers crash leftovers.
type Stager struct {
	dir string
}

func New(dir string) (*Stager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "scanpipe-staging")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Stager{dir: dir}, nil
}

// Dir returns the staging root.
func (s *Stager) Dir() string { return s.dir }

// Stage writes payload to a collision-resistant temp file named by kind
// and a random component, and returns a handle whose Cleanup removes it.
func (s *Stager) Stage(payload []byte, kind domain.ScanType) (domain.StagedMedia, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	name := fmt.Sprintf("%s-%s%s", kind, uuid.New().String(), extensionFor(kind))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return nil, fmt.Errorf("writing staged file: %w", err)
	}
	return &StagedFile{path: path}, nil
}

func extensionFor(kind domain.ScanType) string {
	switch kind {
	case domain.TypeAudio:
		return ".mp3"
	case domain.TypeVideo:
		return ".mp4"
	default:
		return ".bin"
	}
}

// StagedFile is a handle to one staged temp file.
type StagedFile struct {
	path string
	once sync.Once
	err  error
}

func (f *StagedFile) Path() string { return f.path }

// Cleanup removes the staged file. Idempotent: safe to call from a defer
// even when the file was already archived and removed elsewhere.
func (f *StagedFile) Cleanup() error {
	f.once.Do(func() {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			f.err = err
		}
	})
	return f.err
}
