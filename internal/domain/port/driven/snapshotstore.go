package driven

import (
	"context"

	"github.com/ericfisherdev/checkgate/internal/domain/model"
)

// CycleSnapshot is one poll cycle's observed check-run state plus the
// decision the monitor took on it.
type CycleSnapshot struct {
	RunID   string // Identifies one monitor invocation (repo@sha + start time).
	Attempt int    // 1-based poll cycle counter.
	Runs    []model.CheckRun
	Verdict string // pending, passed, failed, timed_out.
}

// SnapshotStore defines the driven port for the optional poll-history
// database. A nil store means history recording is disabled.
type SnapshotStore interface {
	// RecordCycle persists one cycle's snapshot.
	RecordCycle(ctx context.Context, snap CycleSnapshot) error

	// CyclesForRun returns all recorded snapshots for a monitor run,
	// ordered by attempt.
	CyclesForRun(ctx context.Context, runID string) ([]CycleSnapshot, error)
}
