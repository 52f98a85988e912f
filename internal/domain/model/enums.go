package model

// Status represents the lifecycle stage of a check run.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Conclusion represents the outcome of a completed check run.
type Conclusion string

const (
	ConclusionSuccess        Conclusion = "success"
	ConclusionNeutral        Conclusion = "neutral"
	ConclusionSkipped        Conclusion = "skipped"
	ConclusionFailure        Conclusion = "failure"
	ConclusionFailed         Conclusion = "failed" // Undocumented, but observed in the wild.
	ConclusionCancelled      Conclusion = "cancelled"
	ConclusionTimedOut       Conclusion = "timed_out"
	ConclusionActionRequired Conclusion = "action_required"
	ConclusionStale          Conclusion = "stale"
	ConclusionStartupFailure Conclusion = "startup_failure"
)

var passingConclusions = map[Conclusion]bool{
	ConclusionSuccess: true,
	ConclusionNeutral: true,
	ConclusionSkipped: true,
}

var failingConclusions = map[Conclusion]bool{
	ConclusionFailure:        true,
	ConclusionFailed:         true,
	ConclusionCancelled:      true,
	ConclusionTimedOut:       true,
	ConclusionActionRequired: true,
	ConclusionStale:          true,
	ConclusionStartupFailure: true,
}

// Passing reports whether this conclusion counts as a satisfied check.
func (c Conclusion) Passing() bool {
	return passingConclusions[c]
}

// Failing reports whether a completed run with this conclusion fails the
// gate. Any conclusion outside the passing set fails, so values GitHub
// adds later fail closed rather than slipping through as green.
func (c Conclusion) Failing() bool {
	return !passingConclusions[c]
}

// Known reports whether the conclusion is in the closed enumeration.
// Callers log unknown values before treating them as failing.
func (c Conclusion) Known() bool {
	return passingConclusions[c] || failingConclusions[c]
}

// Outcome is the terminal state of one monitor run.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
)

// String returns a log-friendly name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}
