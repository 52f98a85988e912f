package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/ericfisherdev/checkgate/internal/domain/model"
)

// Reporter writes the final snapshot to the GitHub Actions output
// surfaces: the step summary file and workflow error annotations.
type Reporter struct {
	summaryPath string // Empty disables the step summary.
}

// NewReporter creates a Reporter. summaryPath is usually the value of
// $GITHUB_STEP_SUMMARY and may be empty outside Actions.
func NewReporter(summaryPath string) *Reporter {
	return &Reporter{summaryPath: summaryPath}
}

// WriteStepSummary appends a markdown table of the final check-run
// snapshot to the step summary file. It is a no-op when no summary
// path is configured.
func (r *Reporter) WriteStepSummary(runs []model.CheckRun) error {
	if r.summaryPath == "" || len(runs) == 0 {
		return nil
	}

	f, err := os.OpenFile(r.summaryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary %s: %w", r.summaryPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(SummaryTable(runs)); err != nil {
		return fmt.Errorf("append step summary: %w", err)
	}

	return nil
}

// SummaryTable renders the check-run snapshot as a markdown table.
func SummaryTable(runs []model.CheckRun) string {
	var b strings.Builder
	b.WriteString("\n| Run Name | Status | Conclusion |\n")
	b.WriteString("|--------|--------|--------|\n")
	for _, run := range runs {
		conclusion := string(run.Conclusion)
		if conclusion == "" {
			conclusion = "-"
		}
		fmt.Fprintf(&b, "|%s|%s|%s|\n", run.Name, run.Status, conclusion)
	}
	return b.String()
}

// ErrorAnnotation returns the workflow command that surfaces the gate
// failure in the Actions UI. Annotations are matched on raw stdout
// lines, so the message must stay on one line.
func ErrorAnnotation(message string) string {
	message = strings.ReplaceAll(message, "\n", "%0A")
	return "::error title=Checks gate failed::" + message
}
