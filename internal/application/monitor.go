// Package application contains the monitor's polling and decision logic.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ericfisherdev/checkgate/internal/config"
	"github.com/ericfisherdev/checkgate/internal/domain/model"
	"github.com/ericfisherdev/checkgate/internal/domain/port/driven"
)

// fetchRetries bounds the per-cycle retry of transient fetch errors.
// A cycle that still fails after these retries is skipped; the next
// tick tries again, and the overall timeout bounds everything.
const fetchRetries = 4

// Result carries the terminal state of a monitor run and the detail
// needed for diagnostics and the step summary.
type Result struct {
	Outcome    model.Outcome
	Message    string           // Human-readable reason, empty on success.
	FinalRuns  []model.CheckRun // Last observed snapshot, latest run per name.
	FailedRuns []model.CheckRun
	Incomplete []model.CheckRun
	SHA        string
	Attempts   int
}

// Monitor polls the check runs of one commit until they reach a
// terminal state or the timeout elapses.
type Monitor struct {
	client  driven.ChecksClient
	history driven.SnapshotStore // nil disables poll-history recording.
	cfg     *config.Config
}

// NewMonitor creates a Monitor. history may be nil.
func NewMonitor(client driven.ChecksClient, history driven.SnapshotStore, cfg *config.Config) *Monitor {
	return &Monitor{
		client:  client,
		history: history,
		cfg:     cfg,
	}
}

// Run blocks until the gate resolves. It returns an error only for
// fatal conditions (bad credential, unresolvable branch, canceled
// context); check failures and timeouts are reported in the Result so
// the caller owns the exit code.
func (m *Monitor) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	deadline := start.Add(m.cfg.Timeout)

	sha, err := m.client.ResolveHeadSHA(ctx, m.cfg.Repository, m.cfg.Branch)
	if err != nil {
		return nil, fmt.Errorf("resolving head of %s %s: %w", m.cfg.Repository, m.cfg.Branch, err)
	}

	runID := fmt.Sprintf("%s@%s/%d", m.cfg.Repository, shortSHA(sha), start.Unix())
	ignore := m.cfg.IgnoreSet()

	slog.Info("monitoring check runs",
		"repo", m.cfg.Repository,
		"branch", m.cfg.Branch,
		"sha", shortSHA(sha),
		"interval", m.cfg.Interval,
		"timeout", m.cfg.Timeout,
		"exhaustive", m.cfg.Exhaustive,
		"ignored", len(ignore),
	)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	var attempt int
	for {
		attempt++

		eval, err := m.observe(ctx, sha, attempt, ignore)
		if err != nil {
			return nil, err
		}

		if eval != nil {
			res := m.decide(eval)

			if res == nil && !time.Now().Before(deadline) {
				res = &Result{
					Outcome:    model.OutcomeTimedOut,
					Message:    timeoutMessage(m.cfg.Timeout, eval),
					Incomplete: eval.incomplete,
				}
			}

			verdict := "pending"
			if res != nil {
				verdict = res.Outcome.String()
				if res.Outcome == model.OutcomeSucceeded {
					verdict = "passed"
				}
			}
			m.record(ctx, runID, attempt, eval.latest, verdict)

			if res != nil {
				res.FinalRuns = eval.latest
				res.SHA = sha
				res.Attempts = attempt
				slog.Info("gate resolved", "outcome", res.Outcome, "attempts", attempt, "elapsed", time.Since(start).Round(time.Second))
				return res, nil
			}
		} else if !time.Now().Before(deadline) {
			// Every fetch in the final window failed; the gate still times out.
			return &Result{
				Outcome:  model.OutcomeTimedOut,
				Message:  fmt.Sprintf("timed out after %s without a successful check-run fetch", m.cfg.Timeout),
				SHA:      sha,
				Attempts: attempt,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// evaluation is one poll cycle's classified snapshot.
type evaluation struct {
	latest     []model.CheckRun // Latest run per name, before ignore filtering.
	relevant   []model.CheckRun // After ignore filtering.
	incomplete []model.CheckRun
	passed     []model.CheckRun // Completed with conclusion success.
	ignored    []model.CheckRun // Completed with conclusion neutral/skipped.
	failed     []model.CheckRun
}

// observe fetches and classifies one snapshot. A nil evaluation with a
// nil error means the fetch failed transiently and the cycle is skipped.
func (m *Monitor) observe(ctx context.Context, sha string, attempt int, ignore map[string]bool) (*evaluation, error) {
	runs, err := m.fetch(ctx, sha)
	if err != nil {
		if errors.Is(err, driven.ErrUnauthorized) || ctx.Err() != nil {
			return nil, err
		}
		slog.Error("check-run fetch failed, will retry next cycle", "attempt", attempt, "error", err)
		return nil, nil
	}

	eval := m.classify(runs, ignore)

	slog.Info("poll cycle",
		"attempt", attempt,
		"total", len(eval.latest),
		"relevant", len(eval.relevant),
		"incomplete", len(eval.incomplete),
		"passed", len(eval.passed),
		"ignored_conclusion", len(eval.ignored),
		"failed", len(eval.failed),
	)
	for _, run := range eval.latest {
		slog.Debug("check run", "name", run.Name, "status", run.Status, "conclusion", run.Conclusion)
	}

	return eval, nil
}

// fetch retrieves the check runs with bounded exponential-backoff retry.
// Credential rejections are permanent and bypass the retry.
func (m *Monitor) fetch(ctx context.Context, sha string) ([]model.CheckRun, error) {
	var runs []model.CheckRun

	op := func() error {
		var err error
		runs, err = m.client.FetchCheckRuns(ctx, m.cfg.Repository, sha)
		if err != nil {
			if errors.Is(err, driven.ErrUnauthorized) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	return runs, nil
}

// classify reduces the raw run list to the latest run per name, drops
// ignored names, and buckets the remainder by state.
func (m *Monitor) classify(runs []model.CheckRun, ignore map[string]bool) *evaluation {
	eval := &evaluation{latest: model.LatestRuns(runs)}

	for _, run := range eval.latest {
		if ignore[run.Name] {
			slog.Debug("ignoring check run", "name", run.Name)
			continue
		}
		eval.relevant = append(eval.relevant, run)

		if !run.Completed() {
			eval.incomplete = append(eval.incomplete, run)
			continue
		}

		if !run.Conclusion.Known() {
			slog.Warn("unrecognized check conclusion, treating as failing", "name", run.Name, "conclusion", run.Conclusion)
		}

		switch {
		case run.Conclusion == model.ConclusionSuccess:
			eval.passed = append(eval.passed, run)
		case run.Conclusion.Passing():
			eval.ignored = append(eval.ignored, run)
		default:
			eval.failed = append(eval.failed, run)
		}
	}

	return eval
}

// decide applies the gate's decision table to one snapshot. It returns
// nil when the monitor should keep polling. The table is a pure function
// of the snapshot, so an unchanged terminal snapshot yields the same
// decision every cycle.
func (m *Monitor) decide(eval *evaluation) *Result {
	if len(eval.relevant) == 0 {
		slog.Info("no check runs to evaluate yet")
		return nil
	}

	if len(eval.failed) > 0 && !m.cfg.Exhaustive {
		return &Result{
			Outcome:    model.OutcomeFailed,
			Message:    failureMessage(eval.failed),
			FailedRuns: eval.failed,
			Incomplete: eval.incomplete,
		}
	}

	if len(eval.incomplete) > 0 {
		if len(eval.failed) > 0 {
			// Exhaustive mode: the failure stands, but every check gets
			// its run before the gate reports.
			slog.Info("failures observed, waiting for remaining checks", "failed", model.Names(eval.failed), "incomplete", len(eval.incomplete))
		}
		return nil
	}

	if len(eval.failed) > 0 {
		return &Result{
			Outcome:    model.OutcomeFailed,
			Message:    failureMessage(eval.failed),
			FailedRuns: eval.failed,
		}
	}

	return &Result{Outcome: model.OutcomeSucceeded}
}

// record persists one cycle to the history store, when configured.
// History failures never affect the gate.
func (m *Monitor) record(ctx context.Context, runID string, attempt int, runs []model.CheckRun, verdict string) {
	if m.history == nil {
		return
	}

	snap := driven.CycleSnapshot{
		RunID:   runID,
		Attempt: attempt,
		Runs:    runs,
		Verdict: verdict,
	}
	if err := m.history.RecordCycle(ctx, snap); err != nil {
		slog.Error("poll history write failed", "attempt", attempt, "error", err)
	}
}

func failureMessage(failed []model.CheckRun) string {
	parts := make([]string, 0, len(failed))
	for _, run := range failed {
		parts = append(parts, fmt.Sprintf("%s (%s)", run.Name, run.Conclusion))
	}
	return "failing check runs: " + strings.Join(parts, ", ")
}

func timeoutMessage(timeout time.Duration, eval *evaluation) string {
	if len(eval.incomplete) == 0 {
		return fmt.Sprintf("timed out after %s", timeout)
	}
	return fmt.Sprintf("timed out after %s waiting for: %s", timeout, strings.Join(model.Names(eval.incomplete), ", "))
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
