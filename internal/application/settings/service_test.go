package settings

import (
	"context"
	"errors"
	"testing"

	domain "github.com/creatorshield/scanpipe/internal/domain/settings"
)

type fakeRepo struct {
	pct    int
	getErr error
	setErr error
	set    []int
}

func (f *fakeRepo) GetMatchThreshold(context.Context) (int, error) {
	return f.pct, f.getErr
}

func (f *fakeRepo) SetMatchThreshold(_ context.Context, pct int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.set = append(f.set, pct)
	return nil
}

func TestResolveStoredValue(t *testing.T) {
	svc := NewService(&fakeRepo{pct: 70})
	if got := svc.Resolve(context.Background()); got != 70 {
		t.Fatalf("Resolve = %d, want 70", got)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	cases := map[string]*fakeRepo{
		"read error":   {getErr: errors.New("db down")},
		"negative":     {pct: -1},
		"zero":         {pct: 0},
		"over hundred": {pct: 101},
	}
	for name, repo := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(repo)
			if got := svc.Resolve(context.Background()); got != domain.DefaultMatchThreshold {
				t.Fatalf("Resolve = %d, want the default %d", got, domain.DefaultMatchThreshold)
			}
		})
	}
}

func TestResolveNilService(t *testing.T) {
	var svc *Service
	if got := svc.Resolve(context.Background()); got != domain.DefaultMatchThreshold {
		t.Fatalf("Resolve on nil service = %d, want %d", got, domain.DefaultMatchThreshold)
	}
}

func TestUpdateValidatesRange(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	// 0 would let a no-signal score of 0 count as a match.
	for _, pct := range []int{-1, 0, 101, 500} {
		if err := svc.Update(context.Background(), pct); err == nil {
			t.Fatalf("Update(%d) accepted an out-of-range threshold", pct)
		}
	}
	if len(repo.set) != 0 {
		t.Fatal("repo was written despite validation failures")
	}

	if err := svc.Update(context.Background(), 92); err != nil {
		t.Fatalf("Update(92): %v", err)
	}
	if len(repo.set) != 1 || repo.set[0] != 92 {
		t.Fatalf("repo writes = %v, want [92]", repo.set)
	}
}
