package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/checkgate/internal/domain/model"
	"github.com/ericfisherdev/checkgate/internal/domain/port/driven"
)

func TestSnapshotRepo_RecordAndReadBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)
	ctx := context.Background()

	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(5 * time.Minute)

	snap := driven.CycleSnapshot{
		RunID:   "owner/repo@abc123def456/1756200000",
		Attempt: 1,
		Verdict: "pending",
		Runs: []model.CheckRun{
			{
				ID:          101,
				Name:        "build",
				Status:      model.StatusCompleted,
				Conclusion:  model.ConclusionSuccess,
				DetailsURL:  "https://github.com/owner/repo/runs/101",
				StartedAt:   started,
				CompletedAt: completed,
			},
			{
				ID:        102,
				Name:      "deploy",
				Status:    model.StatusInProgress,
				StartedAt: started,
			},
		},
	}

	require.NoError(t, repo.RecordCycle(ctx, snap))

	got, err := repo.CyclesForRun(ctx, snap.RunID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, 1, got[0].Attempt)
	assert.Equal(t, "pending", got[0].Verdict)
	require.Len(t, got[0].Runs, 2)

	// Ordered by name.
	build := got[0].Runs[0]
	assert.Equal(t, int64(101), build.ID)
	assert.Equal(t, "build", build.Name)
	assert.Equal(t, model.StatusCompleted, build.Status)
	assert.Equal(t, model.ConclusionSuccess, build.Conclusion)
	assert.Equal(t, "https://github.com/owner/repo/runs/101", build.DetailsURL)
	assert.True(t, build.StartedAt.Equal(started))
	assert.True(t, build.CompletedAt.Equal(completed))

	deploy := got[0].Runs[1]
	assert.Equal(t, "deploy", deploy.Name)
	assert.Equal(t, model.Conclusion(""), deploy.Conclusion)
	assert.True(t, deploy.CompletedAt.IsZero())
}

func TestSnapshotRepo_CyclesOrderedByAttempt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)
	ctx := context.Background()

	runID := "owner/repo@abc123def456/1756200001"
	for attempt := 3; attempt >= 1; attempt-- {
		verdict := "pending"
		if attempt == 3 {
			verdict = "passed"
		}
		require.NoError(t, repo.RecordCycle(ctx, driven.CycleSnapshot{
			RunID:   runID,
			Attempt: attempt,
			Verdict: verdict,
			Runs:    []model.CheckRun{{ID: 1, Name: "build", Status: model.StatusInProgress}},
		}))
	}

	got, err := repo.CyclesForRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Attempt, got[1].Attempt, got[2].Attempt})
	assert.Equal(t, "passed", got[2].Verdict)
}

func TestSnapshotRepo_DuplicateAttemptRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)
	ctx := context.Background()

	snap := driven.CycleSnapshot{RunID: "run-x", Attempt: 1, Verdict: "pending"}

	require.NoError(t, repo.RecordCycle(ctx, snap))
	assert.Error(t, repo.RecordCycle(ctx, snap))
}

func TestSnapshotRepo_UnknownRunIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	got, err := repo.CyclesForRun(context.Background(), "never-recorded")

	require.NoError(t, err)
	assert.Empty(t, got)
}
