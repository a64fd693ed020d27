package staging

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// CleanStale removes staged files older than maxAge. Normal operation
// deletes every staged file before its scan returns, so anything old
// enough to trip this is a crash leftover. Returns the removed paths.
func (s *Stager) CleanStale(maxAge time.Duration) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("staging sweep: reading %s: %v", s.dir, err)
		}
		return nil
	}

	cutoff := time.Now().Add(-maxAge)

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("staging sweep: removing %s: %v", path, err)
			continue
		}
		removed = append(removed, path)
	}
	return removed
}
