// Package config holds and validates the monitor's invocation settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the settings for one monitor invocation, populated from
// CLI flags with environment fallbacks applied by ApplyEnv.
type Config struct {
	Token      string        // GitHub credential.
	Repository string        // owner/repo.
	Branch     string        // Branch whose head commit is evaluated.
	Interval   time.Duration // Delay between poll cycles.
	Timeout    time.Duration // Maximum total wait.
	JobName    string        // The invoking job's own check name; always ignored.
	Ignore     []string      // Additional check names excluded from evaluation.
	Exhaustive bool          // Wait for all checks before deciding instead of failing fast.
	Debug      bool          // Verbose diagnostic output.

	HistoryDBPath   string // Optional SQLite poll-history database; empty disables recording.
	StepSummaryPath string // $GITHUB_STEP_SUMMARY sink; empty outside Actions.
}

// ApplyEnv fills unset fields from the GitHub Actions environment:
// GITHUB_TOKEN as the credential fallback and GITHUB_STEP_SUMMARY as
// the summary sink.
func (c *Config) ApplyEnv() {
	if c.Token == "" {
		c.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.StepSummaryPath == "" {
		c.StepSummaryPath = os.Getenv("GITHUB_STEP_SUMMARY")
	}
}

// Validate checks the invariants the monitor relies on. It is called
// before any polling, so a bad flag combination fails the job immediately.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("token is required (--token or $GITHUB_TOKEN)")
	}
	if c.Repository == "" {
		return errors.New("repository is required")
	}
	if !strings.Contains(c.Repository, "/") {
		return fmt.Errorf("repository %q must be owner/repo", c.Repository)
	}
	if c.Branch == "" {
		return errors.New("branch is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Timeout < c.Interval {
		return fmt.Errorf("timeout %s must be at least the interval %s", c.Timeout, c.Interval)
	}
	return nil
}

// IgnoreSet returns the set of check names excluded from evaluation.
// The invoking job's own name is always a member so the gate cannot
// deadlock waiting on itself.
func (c *Config) IgnoreSet() map[string]bool {
	set := make(map[string]bool, len(c.Ignore)+1)
	for _, name := range c.Ignore {
		if name != "" {
			set[name] = true
		}
	}
	if c.JobName != "" {
		set[c.JobName] = true
	}
	return set
}

// SplitNames splits a comma or whitespace delimited list of check names,
// trimming surrounding space from each entry.
func SplitNames(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}
