package settings

import (
	"context"
	"fmt"

	domain "github.com/creatorshield/scanpipe/internal/domain/settings"
)

// Service resolves and updates the match-acceptance threshold.
type Service struct {
	Repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{Repo: repo}
}

// Resolve returns the current threshold percentage in [1,100]. A read
// failure, an absent value or an out-of-range value all fall back to the
// default; the scan pipeline never blocks on configuration. A threshold
// of 0 is out of range: it would let a no-signal score of 0 count as a
// match.
func (s *Service) Resolve(ctx context.Context) int {
	if s == nil || s.Repo == nil {
		return domain.DefaultMatchThreshold
	}
	pct, err := s.Repo.GetMatchThreshold(ctx)
	if err != nil || pct < 1 || pct > 100 {
		return domain.DefaultMatchThreshold
	}
	return pct
}

// Update persists a new threshold. Takes effect on the next scan.
func (s *Service) Update(ctx context.Context, pct int) error {
	if pct < 1 || pct > 100 {
		return fmt.Errorf("match threshold must be between 1 and 100, got %d", pct)
	}
	return s.Repo.SetMatchThreshold(ctx, pct)
}
