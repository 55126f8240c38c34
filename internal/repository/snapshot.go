package repository

import (
	"context"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
)

// SnapshotProvider fetches the read-only data a planning run operates on.
// Implementations must not expose rows the planner is not allowed to see:
// buyers without a location, bad-quality or out-of-stock inventory records,
// and unavailable trucks are filtered at the source.
type SnapshotProvider interface {
	Fetch(ctx context.Context) (*domain.Snapshot, error)
}
