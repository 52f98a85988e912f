// Package model contains the domain types for check-run monitoring.
package model

import (
	"sort"
	"time"
)

// CheckRun represents an individual CI/CD check run from the GitHub Checks API.
type CheckRun struct {
	ID          int64      // GitHub check run ID; re-runs of the same check get higher IDs.
	Name        string     // Check run name (e.g., "build", "lint").
	Status      Status     // queued, in_progress, completed.
	Conclusion  Conclusion // Empty until Status is completed.
	DetailsURL  string     // URL to the check run details page.
	StartedAt   time.Time  // When the check run started.
	CompletedAt time.Time  // When the check run completed (zero if not yet completed).
}

// Completed reports whether the run has reached its terminal status.
// Unrecognized status values count as incomplete.
func (r CheckRun) Completed() bool {
	return r.Status == StatusCompleted
}

// LatestRuns reduces a check-run list to the most recent run per name.
// Re-running a job leaves the superseded runs attached to the same commit,
// so only the highest check-run ID for each name reflects current state.
// The result is ordered by name for stable logging and summary output.
func LatestRuns(runs []CheckRun) []CheckRun {
	byName := make(map[string]CheckRun, len(runs))
	for _, run := range runs {
		if prev, ok := byName[run.Name]; ok && prev.ID >= run.ID {
			continue
		}
		byName[run.Name] = run
	}

	latest := make([]CheckRun, 0, len(byName))
	for _, run := range byName {
		latest = append(latest, run)
	}
	sort.Slice(latest, func(i, j int) bool { return latest[i].Name < latest[j].Name })

	return latest
}

// Names returns the run names in order, for diagnostics.
func Names(runs []CheckRun) []string {
	names := make([]string, 0, len(runs))
	for _, run := range runs {
		names = append(names, run.Name)
	}
	return names
}
