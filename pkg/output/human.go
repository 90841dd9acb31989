package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer    io.Writer
	totalJobs int
	doneJobs  int
	mu        sync.Mutex
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, totalJobs int, maxWorkers int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalJobs = totalJobs

	fmt.Fprintf(f.writer, "Starting mirror run: %d locators, %d workers\n", totalJobs, maxWorkers)
	return nil
}

// Update reports progress during the run
func (f *HumanFormatter) Update(update JobUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case "count_result":
		if update.ExpectedCount == models.UnknownCount {
			fmt.Fprintf(f.writer, "? %s: remote count unavailable\n", update.Locator)
		} else {
			fmt.Fprintf(f.writer, "  %s: %d remote directories\n", update.Locator, update.ExpectedCount)
		}

	case "job_complete":
		f.doneJobs++
		fmt.Fprintf(f.writer, "[%d/%d] ✓ %s (expected %d, local %d)\n",
			f.doneJobs, f.totalJobs, update.Locator, update.ExpectedCount, update.LocalCount)

	case "job_error":
		f.doneJobs++
		fmt.Fprintf(f.writer, "[%d/%d] ✗ %s: %s\n",
			f.doneJobs, f.totalJobs, update.Locator, update.Status)

	case "job_skipped":
		f.doneJobs++
		fmt.Fprintf(f.writer, "[%d/%d] - %s: skipped (no remote count)\n",
			f.doneJobs, f.totalJobs, update.Locator)
	}

	return nil
}

// Complete finalizes output and displays the run summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Run completed in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Summary:\n")
	fmt.Fprintf(f.writer, "  Locators processed: %d\n", report.Stats.LocatorsProcessed)
	fmt.Fprintf(f.writer, "  Counting:\n")
	fmt.Fprintf(f.writer, "    Counts obtained:  %d\n", report.Stats.CountsKnown)
	fmt.Fprintf(f.writer, "    Counts unknown:   %d\n", report.Stats.CountsUnknown)
	fmt.Fprintf(f.writer, "  Mirroring:\n")
	fmt.Fprintf(f.writer, "    Succeeded:        %d\n", report.Stats.Succeeded)
	fmt.Fprintf(f.writer, "    Failed:           %d\n", report.Stats.Failed)
	if report.Stats.TimedOut > 0 {
		fmt.Fprintf(f.writer, "    Timed out:        %d\n", report.Stats.TimedOut)
	}
	fmt.Fprintf(f.writer, "    Skipped:          %d\n", report.Stats.Skipped)
	fmt.Fprintf(f.writer, "  Verification:\n")
	fmt.Fprintf(f.writer, "    Counts matched:    %d\n", report.Stats.CountsMatched)
	fmt.Fprintf(f.writer, "    Counts mismatched: %d\n", report.Stats.CountsMismatched)
	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Status: %s\n", report.Status)

	// Mismatches are not failures, surface them for operators
	for _, outcome := range report.Outcomes {
		if outcome.Status == models.JobSuccess &&
			outcome.ExpectedCount != models.UnknownCount && !outcome.CountVerified {
			fmt.Fprintf(f.writer, "  mismatch: %s expected=%d local=%d\n",
				outcome.Locator.Raw, outcome.ExpectedCount, outcome.LocalCount)
		}
	}

	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	w := f.writer
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
