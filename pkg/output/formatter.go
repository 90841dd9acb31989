package output

import (
	"fmt"
	"io"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// JobUpdate represents a progress notification during a run
type JobUpdate struct {
	Type          string // "count_result", "job_complete", "job_error", "job_skipped"
	Locator       string
	Status        models.JobStatus
	ExpectedCount int
	LocalCount    int
	Error         error
}

// Formatter defines the interface for run output formatting
// Implementations include human-readable, JSON, and progress-bar formatters
type Formatter interface {
	// Start initializes the formatter for a new run
	// maxWorkers indicates the mirroring pool size for display purposes
	Start(writer io.Writer, totalJobs int, maxWorkers int) error

	// Update reports progress during the run
	Update(update JobUpdate) error

	// Complete finalizes output and displays the run summary
	Complete(report *models.RunReport) error

	// Error reports a run-level error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// NewFormatter creates a formatter by name. An empty name selects the
// human-readable formatter.
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "", "human":
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "progress":
		return NewProgressFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
}
