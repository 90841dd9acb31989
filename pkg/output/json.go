package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// JSONFormatter emits the full run report as a single JSON document at
// completion. Intermediate updates are suppressed so the output stays
// machine-parseable.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// jsonOutcome is the wire form of a job outcome
type jsonOutcome struct {
	Locator       string `json:"locator"`
	Status        string `json:"status"`
	Failure       string `json:"failure,omitempty"`
	ExpectedCount int    `json:"expected_count"`
	LocalCount    int    `json:"local_count"`
	CountVerified bool   `json:"count_verified"`
	DurationMS    int64  `json:"duration_ms"`
	Output        string `json:"output,omitempty"`
}

// jsonReport is the wire form of a run report
type jsonReport struct {
	OperationID  string        `json:"operation_id"`
	DownloadRoot string        `json:"download_root"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	DurationMS   int64         `json:"duration_ms"`
	Status       string        `json:"status"`
	Totals       jsonTotals    `json:"totals"`
	Outcomes     []jsonOutcome `json:"outcomes"`
}

type jsonTotals struct {
	LocatorsProcessed int `json:"locators_processed"`
	CountsKnown       int `json:"counts_known"`
	CountsUnknown     int `json:"counts_unknown"`
	Succeeded         int `json:"succeeded"`
	Failed            int `json:"failed"`
	TimedOut          int `json:"timed_out"`
	Skipped           int `json:"skipped"`
	CountsMatched     int `json:"counts_matched"`
	CountsMismatched  int `json:"counts_mismatched"`
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalJobs int, maxWorkers int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Update is a no-op; the JSON formatter only reports at completion
func (f *JSONFormatter) Update(update JobUpdate) error {
	return nil
}

// Complete emits the run report as JSON
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = os.Stdout
	}

	out := jsonReport{
		OperationID:  report.OperationID,
		DownloadRoot: report.DownloadRoot,
		StartTime:    report.StartTime,
		EndTime:      report.EndTime,
		DurationMS:   report.Duration.Milliseconds(),
		Status:       string(report.Status),
		Totals: jsonTotals{
			LocatorsProcessed: report.Stats.LocatorsProcessed,
			CountsKnown:       report.Stats.CountsKnown,
			CountsUnknown:     report.Stats.CountsUnknown,
			Succeeded:         report.Stats.Succeeded,
			Failed:            report.Stats.Failed,
			TimedOut:          report.Stats.TimedOut,
			Skipped:           report.Stats.Skipped,
			CountsMatched:     report.Stats.CountsMatched,
			CountsMismatched:  report.Stats.CountsMismatched,
		},
		Outcomes: make([]jsonOutcome, 0, len(report.Outcomes)),
	}

	for _, outcome := range report.Outcomes {
		out.Outcomes = append(out.Outcomes, jsonOutcome{
			Locator:       outcome.Locator.Raw,
			Status:        string(outcome.Status),
			Failure:       string(outcome.Failure),
			ExpectedCount: outcome.ExpectedCount,
			LocalCount:    outcome.LocalCount,
			CountVerified: outcome.CountVerified,
			DurationMS:    outcome.Duration.Milliseconds(),
			Output:        outcome.Output,
		})
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Error reports a run-level error as a JSON object
func (f *JSONFormatter) Error(err error) error {
	w := f.writer
	if w == nil {
		w = os.Stderr
	}
	return json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
