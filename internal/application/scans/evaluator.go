package scans

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	domain "github.com/creatorshield/scanpipe/internal/domain/scans"
)

// Scorer turns an extracted fingerprint into a raw similarity score in
// [0,1]. The decision rule (threshold comparison) is fixed in the
// evaluator; only the score source is pluggable.
type Scorer interface {
	Score(kind domain.ScanType, fp domain.Fingerprint) float64
}

// PresenceScorer is the current production policy: any audio/video
// fingerprint scores 1.0, a non-empty transcript scores a pseudo-random
// value in [0.6,1.0), and no signal scores 0. It does not compare the
// two sides' fingerprints against each other.
//
// TODO: replace the text path with cosine similarity over the embedding
// vectors once the analysis service exposes suspect-page embeddings.
type PresenceScorer struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewPresenceScorer() *PresenceScorer {
	return &PresenceScorer{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *PresenceScorer) Score(kind domain.ScanType, fp domain.Fingerprint) float64 {
	if !fp.Present(kind) {
		return 0
	}
	switch kind {
	case domain.TypeText:
		p.mu.Lock()
		defer p.mu.Unlock()
		return 0.6 + 0.4*p.rand.Float64()
	default:
		return 1.0
	}
}

// Evaluator classifies a fingerprint against the resolved threshold.
type Evaluator struct {
	Scorer Scorer
}

func NewEvaluator(scorer Scorer) *Evaluator {
	if scorer == nil {
		scorer = NewPresenceScorer()
	}
	return &Evaluator{Scorer: scorer}
}

// Evaluate computes the match outcome for one scan. The invariant
// MatchFound == (round(score*100) >= thresholdPct) holds for every
// returned outcome, including the no-signal fallbacks (score 0).
func (e *Evaluator) Evaluate(kind domain.ScanType, fp domain.Fingerprint, thresholdPct int) domain.MatchOutcome {
	if !fp.Present(kind) {
		return domain.MatchOutcome{
			MatchFound:    false,
			MatchScore:    0,
			ResultMessage: noSignalMessage(kind),
			ThresholdUsed: thresholdPct,
		}
	}

	score := e.Scorer.Score(kind, fp)
	pct := int(math.Round(score * 100))
	found := pct >= thresholdPct

	position := "below"
	if found {
		position = "above"
	}

	return domain.MatchOutcome{
		MatchFound:    found,
		MatchScore:    score,
		ResultMessage: fmt.Sprintf("Match score %d%% is %s %d%% threshold", pct, position, thresholdPct),
		ThresholdUsed: thresholdPct,
		Transcript:    fp.Transcript,
	}
}

func noSignalMessage(kind domain.ScanType) string {
	switch kind {
	case domain.TypeText:
		return "No transcript could be generated."
	case domain.TypeAudio:
		return "Audio scan did not find a match."
	case domain.TypeVideo:
		return "Video scan did not find a match."
	default:
		return "Scan did not find a match."
	}
}
