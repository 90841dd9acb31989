package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jason0860907/tipomirror/pkg/models"
)

func sampleReport() *models.RunReport {
	start := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	return &models.RunReport{
		OperationID:  "op-42",
		DownloadRoot: "/srv/mirror",
		StartTime:    start,
		EndTime:      start.Add(90 * time.Second),
		Duration:     90 * time.Second,
		Status:       models.RunPartial,
		Stats: models.Statistics{
			LocatorsProcessed: 3,
			CountsKnown:       2,
			CountsUnknown:     1,
			Succeeded:         1,
			Failed:            1,
			Skipped:           1,
			CountsMatched:     0,
			CountsMismatched:  1,
		},
		Outcomes: []*models.JobOutcome{
			{
				Locator:       &models.Locator{Raw: "ftps://h/a", Host: "h", Path: "/a"},
				Status:        models.JobSuccess,
				ExpectedCount: 5,
				LocalCount:    4,
				CountVerified: false,
				Duration:      30 * time.Second,
			},
			{
				Locator:       &models.Locator{Raw: "ftps://h/b", Host: "h", Path: "/b"},
				Status:        models.JobFailed,
				Failure:       models.FailureMirror,
				ExpectedCount: 2,
				LocalCount:    0,
				Output:        "530 login incorrect",
				Duration:      time.Second,
			},
			{
				Locator:       &models.Locator{Raw: "ftps://h/c", Host: "h", Path: "/c"},
				Status:        models.JobSkipped,
				Failure:       models.FailureSkippedNoCount,
				ExpectedCount: models.UnknownCount,
			},
		},
	}
}

// ============================================================================
// Human formatter
// ============================================================================

func TestHumanFormatterUpdates(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()
	if err := f.Start(&buf, 2, 8); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.Update(JobUpdate{Type: "count_result", Locator: "ftps://h/a", ExpectedCount: 7})
	f.Update(JobUpdate{Type: "count_result", Locator: "ftps://h/b", ExpectedCount: models.UnknownCount})
	f.Update(JobUpdate{Type: "job_complete", Locator: "ftps://h/a", ExpectedCount: 7, LocalCount: 7})
	f.Update(JobUpdate{Type: "job_skipped", Locator: "ftps://h/b"})

	out := buf.String()
	for _, want := range []string{
		"2 locators, 8 workers",
		"ftps://h/a: 7 remote directories",
		"ftps://h/b: remote count unavailable",
		"[1/2]",
		"[2/2]",
		"skipped (no remote count)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHumanFormatterSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()
	f.Start(&buf, 3, 8)

	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Locators processed: 3",
		"Counts obtained:  2",
		"Counts unknown:   1",
		"Succeeded:        1",
		"Failed:           1",
		"Skipped:          1",
		"Counts mismatched: 1",
		"Status: partial",
		"mismatch: ftps://h/a expected=5 local=4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestHumanFormatterError(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()
	f.Start(&buf, 0, 0)

	f.Error(errors.New("boom"))
	if !strings.Contains(buf.String(), "Error: boom") {
		t.Errorf("error output = %q", buf.String())
	}
}

// ============================================================================
// JSON formatter
// ============================================================================

func TestJSONFormatterComplete(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	f.Start(&buf, 3, 8)

	// Updates must not pollute the JSON stream
	f.Update(JobUpdate{Type: "job_complete", Locator: "ftps://h/a"})

	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var decoded struct {
		OperationID string `json:"operation_id"`
		Status      string `json:"status"`
		Totals      struct {
			LocatorsProcessed int `json:"locators_processed"`
			Skipped           int `json:"skipped"`
			CountsMismatched  int `json:"counts_mismatched"`
		} `json:"totals"`
		Outcomes []struct {
			Locator       string `json:"locator"`
			Status        string `json:"status"`
			ExpectedCount int    `json:"expected_count"`
			Output        string `json:"output,omitempty"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if decoded.OperationID != "op-42" {
		t.Errorf("operation_id = %q, want op-42", decoded.OperationID)
	}
	if decoded.Status != "partial" {
		t.Errorf("status = %q, want partial", decoded.Status)
	}
	if decoded.Totals.LocatorsProcessed != 3 || decoded.Totals.Skipped != 1 {
		t.Errorf("totals = %+v", decoded.Totals)
	}
	if decoded.Totals.CountsMismatched != 1 {
		t.Errorf("counts_mismatched = %d, want 1", decoded.Totals.CountsMismatched)
	}
	if len(decoded.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(decoded.Outcomes))
	}
	if decoded.Outcomes[2].ExpectedCount != models.UnknownCount {
		t.Errorf("skipped outcome expected_count = %d, want %d",
			decoded.Outcomes[2].ExpectedCount, models.UnknownCount)
	}
	if decoded.Outcomes[1].Output != "530 login incorrect" {
		t.Errorf("failed outcome output = %q", decoded.Outcomes[1].Output)
	}
}

func TestJSONFormatterError(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	f.Start(&buf, 0, 0)

	f.Error(errors.New("no locators"))

	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("error output is not valid JSON: %v", err)
	}
	if decoded["error"] != "no locators" {
		t.Errorf("error = %q", decoded["error"])
	}
}

// ============================================================================
// Progress formatter
// ============================================================================

func TestProgressFormatterCompleteSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter()
	if err := f.Start(&buf, 2, 4); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.Update(JobUpdate{Type: "count_result", Locator: "ftps://h/a", ExpectedCount: 5})
	f.Update(JobUpdate{Type: "job_complete", Locator: "ftps://h/a"})
	f.Update(JobUpdate{Type: "job_skipped", Locator: "ftps://h/b"})

	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Status: partial") {
		t.Errorf("summary missing from progress output:\n%s", buf.String())
	}
}

func TestProgressFormatterZeroJobs(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter()
	if err := f.Start(&buf, 0, 4); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// No bar was created; updates and completion must still work
	f.Update(JobUpdate{Type: "job_complete"})
	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

// ============================================================================
// Formatter selection
// ============================================================================

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"human", "human", false},
		{"json", "json", false},
		{"progress", "progress", false},
		{"", "human", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		f, err := NewFormatter(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewFormatter(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewFormatter(%q) error = %v", tt.name, err)
			continue
		}
		if f.Name() != tt.wantName {
			t.Errorf("NewFormatter(%q).Name() = %q, want %q", tt.name, f.Name(), tt.wantName)
		}
	}
}
