package settings

import "context"

// DefaultMatchThreshold is the acceptance threshold (percent) used when
// no value has been configured or the store cannot be read. A scan must
// never block on missing configuration.
const DefaultMatchThreshold = 85

// Repository port for the mutable match-threshold setting. Reads are
// snapshot semantics: a change takes effect on the next scan, never one
// already in flight.
type Repository interface {
	GetMatchThreshold(ctx context.Context) (int, error)
	SetMatchThreshold(ctx context.Context, pct int) error
}
