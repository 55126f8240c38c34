package memory

import (
	"context"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
)

// SnapshotRepository serves a fixed snapshot from memory. It backs tests and
// offline runs of the planner CLI against canned data.
type SnapshotRepository struct {
	snapshot *domain.Snapshot
	err      error
}

func NewSnapshotRepository(snapshot *domain.Snapshot) *SnapshotRepository {
	return &SnapshotRepository{snapshot: snapshot}
}

// NewFailingSnapshotRepository always returns err, for exercising the
// data-unavailable path.
func NewFailingSnapshotRepository(err error) *SnapshotRepository {
	return &SnapshotRepository{err: err}
}

func (r *SnapshotRepository) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.snapshot, nil
}
