// Package driven defines the outbound port interfaces of the monitor.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/checkgate/internal/domain/model"
)

// ErrUnauthorized is wrapped by adapters when the API rejects the
// credential. Authentication failures are fatal; the monitor never
// retries them.
var ErrUnauthorized = errors.New("github: unauthorized")

// ChecksClient defines the driven port for querying check runs on GitHub.
type ChecksClient interface {
	// ResolveHeadSHA returns the head commit SHA of the given branch.
	// Called once at startup; also serves as the credential probe, so an
	// invalid token fails here before any polling begins.
	ResolveHeadSHA(ctx context.Context, repoFullName string, branch string) (string, error)

	// FetchCheckRuns returns all check runs for the given ref (commit SHA),
	// including superseded runs from re-run jobs.
	FetchCheckRuns(ctx context.Context, repoFullName string, ref string) ([]model.CheckRun, error)
}
